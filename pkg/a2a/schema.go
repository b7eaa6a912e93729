package a2a

// taskSendSchemaID is absolute so that validation errors never carry a
// location derived from the working directory.
const taskSendSchemaID = "urn:ticktock:tasks-send.json"

// taskSendSchema describes the structure of tasks/send params. Semantic rules
// that a schema cannot express well (role of the sender) live in
// TaskSendParams.Validate.
const taskSendSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "` + taskSendSchemaID + `",
  "type": "object",
  "required": ["id", "message"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "sessionId": {"type": "string"},
    "metadata": {"type": "object"},
    "message": {
      "type": "object",
      "required": ["role", "parts"],
      "properties": {
        "role": {"enum": ["user", "agent"]},
        "parts": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/$defs/part"}
        },
        "metadata": {"type": "object"}
      }
    }
  },
  "$defs": {
    "part": {
      "type": "object",
      "required": ["text"],
      "properties": {
        "type": {"const": "text"},
        "text": {"type": "string"}
      }
    }
  }
}`
