package router

import (
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

const envelopeSchema = `{
	"type": "object",
	"required": ["action"],
	"properties": {
		"action": {"type": "string", "minLength": 1},
		"data": {"type": "object"}
	}
}`

var actionSchemas = map[Action]string{
	ActionAnalyzeContent: `{
		"type": "object",
		"required": ["content", "userId", "conversationId"],
		"properties": {
			"content": {"type": "string"},
			"userId": {"type": "string", "minLength": 1},
			"conversationId": {"type": "string", "minLength": 1},
			"metadata": {"type": "object"}
		}
	}`,
	ActionReportIncident: `{
		"type": "object",
		"required": ["userId", "analysisId", "severity"],
		"properties": {
			"userId": {"type": "string", "minLength": 1},
			"conversationId": {"type": "string"},
			"analysisId": {"type": "string", "minLength": 1},
			"severity": {"type": "string", "enum": ["none", "low", "medium", "high", "critical"]},
			"description": {"type": "string"}
		}
	}`,
	ActionGetIncidentHistory: `{
		"type": "object",
		"required": ["userId"],
		"properties": {
			"userId": {"type": "string", "minLength": 1},
			"limit": {"type": "integer", "minimum": 1, "maximum": 100}
		}
	}`,
	ActionHealth: `{"type": "object"}`,
	ActionRouteMessage: `{
		"type": "object",
		"required": ["text", "userId", "conversationId"],
		"properties": {
			"text": {"type": "string"},
			"userId": {"type": "string", "minLength": 1},
			"conversationId": {"type": "string", "minLength": 1},
			"metadata": {"type": "object"}
		}
	}`,
}

// schemaSet holds the compiled request schemas. Compilation happens once at
// handler construction; a broken schema is a build defect and panics.
type schemaSet struct {
	envelope *jsonschema.Schema
	byAction map[Action]*jsonschema.Schema
}

func compileSchemas() *schemaSet {
	compiler := jsonschema.NewCompiler()
	envelope, err := compiler.Compile([]byte(envelopeSchema))
	if err != nil {
		panic(fmt.Sprintf("router: compile envelope schema: %v", err))
	}
	byAction := make(map[Action]*jsonschema.Schema, len(actionSchemas))
	for action, raw := range actionSchemas {
		schema, err := compiler.Compile([]byte(raw))
		if err != nil {
			panic(fmt.Sprintf("router: compile %s schema: %v", action, err))
		}
		byAction[action] = schema
	}
	return &schemaSet{envelope: envelope, byAction: byAction}
}

func (s *schemaSet) validateEnvelope(doc any) error {
	result := s.envelope.Validate(doc)
	if !result.IsValid() {
		return fmt.Errorf("%s", result.Error())
	}
	return nil
}

func (s *schemaSet) validateAction(action Action, data any) error {
	schema, ok := s.byAction[action]
	if !ok {
		return fmt.Errorf("no schema registered for action %q", action)
	}
	result := schema.Validate(data)
	if !result.IsValid() {
		return fmt.Errorf("%s", result.Error())
	}
	return nil
}
