// Package types provides shared data structures for the fsgate service.
//
// This package defines core types used across all components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool specification
//   - Context: Execution context for tool calls
//   - Result: Standard operation result
//
// Request Types:
//   - ExecuteRequest: Service tool execution
//
// Example Usage:
//
//	result := &types.Result{
//	    Success: true,
//	    Data:    map[string]interface{}{"path": "notes.txt"},
//	}
package types
