// Package bridge connects Soleus units to Home Assistant over MQTT.
//
// Each configured unit becomes a climate entity through MQTT discovery.
// Commands from Home Assistant arrive on per-field topics:
//
//	soleus/<unit>/mode/set         off, cool, heat, heat_cool, dry, fan_only, auto
//	soleus/<unit>/temperature/set  target in °C
//	soleus/<unit>/fan_mode/set     low, medium, high
//	soleus/<unit>/preset_mode/set  none, eco, sleep
//
// and are turned into IR frames by the unit's transmitter. The state the
// frame actually carries (DRY forces LOW fan, for example) is published as
// JSON on soleus/<unit>/state, retained.
//
// IR is one-way, so the bridge is optimistic: the state is what was last
// sent, or what was last seen by an IR receiver when the physical remote is
// used. Received frames that fail validation never touch the state.
package bridge
