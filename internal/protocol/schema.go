package protocol

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	props["command"] = &jsonschema.Schema{Type: "string"}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"command"}, required...),
	}
}

var inboundSchemas = map[string]*jsonschema.Schema{
	CommandSearch: object([]string{"text", "historyId"}, map[string]*jsonschema.Schema{
		"text":        {Type: "string"},
		"filePattern": {Types: []string{"string", "null"}},
		"path":        {Types: []string{"string", "null"}},
		"historyId":   {Type: "integer"},
		"options": {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"ignoreCase": {Type: "boolean"},
				"wholeWord":  {Type: "boolean"},
				"regex":      {Type: "boolean"},
				"context":    {Type: "boolean"},
				"multi":      {Type: "boolean"},
			},
		},
	}),
	CommandDeleteHistory: object([]string{"text"}, map[string]*jsonschema.Schema{
		"text": {Type: "string"},
	}),
	CommandOpenFile: object([]string{"filePath", "lineNumber"}, map[string]*jsonschema.Schema{
		"filePath":   {Type: "string", MinLength: jsonschema.Ptr(1)},
		"lineNumber": {Type: "integer", Minimum: jsonschema.Ptr(0.0)},
	}),
	CommandRequestInitialData: object(nil, map[string]*jsonschema.Schema{}),
	CommandSuggestHistory: object([]string{"prefix"}, map[string]*jsonschema.Schema{
		"prefix": {Type: "string"},
		"limit":  {Type: "integer", Minimum: jsonschema.Ptr(0.0), Maximum: jsonschema.Ptr(300.0)},
	}),
}

// resolvedSchemas are resolved once at init
var resolvedSchemas = func() map[string]*jsonschema.Resolved {
	out := make(map[string]*jsonschema.Resolved, len(inboundSchemas))
	for command, schema := range inboundSchemas {
		resolved, err := schema.Resolve(nil)
		if err != nil {
			panic(fmt.Sprintf("protocol schema for %q: %v", command, err))
		}
		out[command] = resolved
	}
	return out
}()
