// Package tools defines the tool contract and the tools of the review agent.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, typed handler.
//   - NewTool: derive the schema from the input struct and validate before executing.
//   - Registry: unique names, Dispatch reports every failure as a failed Invocation.
//   - Tools: get_file_changes, generate_commit_message, write_markdown, read_file.
package tools
