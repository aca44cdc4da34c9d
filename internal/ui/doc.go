// Package ui renders the terminal output of the soleus-ir CLI.
//
// Components are plain lipgloss renderings that return strings, so commands
// print them once and exit:
//
//   - Header: command banner with the parameters of the operation
//   - Result: success, warning or failure box with ordered details
//   - RenderFrame: the nine frame bytes with a meaning for each
//   - RenderState: one-line climate state summary
//   - CaptureMeter: per-reception progress towards the capture threshold
//
// Colors are dropped automatically when stdout is not a terminal.
//
// # Logging Integration
//
// Commands keep zap silent unless SOLEUS_LOG_LEVEL is set, so that the
// rendered output is not interleaved with log lines.
package ui
