// In file: internal/tools/types.go

// Package tools defines the tool catalog the decision engine chooses from,
// the executor that dispatches its tool calls, and the concrete tools of the
// learning assistant. The schema types are provider-agnostic; model adapters
// translate them into their own wire format.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool defines the schema for a function that can be described to an LLM.
// This is the information you send *to* the model to make it aware of a tool's existence.
type Tool struct {
	// Type specifies the type of tool, which is almost always "function".
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	// Name is the name of the function to be called (e.g., "get_knowledge_level").
	Name string `json:"name"`
	// Description is what the model reads to decide when to use the tool.
	Description string `json:"description"`
	// Parameters defines the arguments the function accepts, structured as a JSON Schema.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema used for tool parameters.
type JSONSchema struct {
	// Type is the data type of the node: "object", "array", "string",
	// "number", "integer" or "boolean".
	Type string `json:"type"`
	// Description explains what a specific parameter is for.
	Description string `json:"description,omitempty"`
	// Properties describes the fields of an object node.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Items describes the elements of an array node.
	Items *JSONSchema `json:"items,omitempty"`
	// Enum restricts a string node to a fixed set of values. A nil Enum means
	// unrestricted; a non-nil empty Enum is a schema that admits nothing and
	// is rejected by the catalog.
	Enum []string `json:"enum,omitempty"`
	// AdvisoryEnum advertises Enum to the decision engine without enforcing
	// it locally; the handler reports values outside it.
	AdvisoryEnum bool `json:"-"`
	// Required is a list of parameter names that are mandatory for a function call.
	Required []string `json:"required,omitempty"`
}

// NewFunctionTool is a helper function that simplifies the creation of a new Tool.
//
// Parameters:
//   - name: The name of the function.
//   - description: A clear description of what the function does.
//   - parameters: A JSONSchema struct defining the function's arguments.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Name is a shortcut for t.Function.Name.
func (t Tool) Name() string {
	return t.Function.Name
}
