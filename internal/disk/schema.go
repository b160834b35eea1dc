package disk

// configSchema describes the partition config file. Only the shape of the
// document is checked here; semantic checks live in Load.
var configSchema = `
{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "title": "Partition Config",
  "type": "object",
  "additionalProperties": false,
  "required": ["metadata", "layouts"],
  "definitions": {
    "count": {
      "anyOf": [
        {"type": "integer", "minimum": 0},
        {"type": "string", "pattern": "^[0-9]+$"}
      ]
    },
    "partition": {
      "type": "object",
      "additionalProperties": false,
      "required": ["type", "blocks"],
      "properties": {
        "_comment": {},
        "type": {"type": "string", "minLength": 1},
        "num": {"type": "integer"},
        "label": {"type": "string"},
        "blocks": {"$ref": "#/definitions/count"},
        "block_size": {"$ref": "#/definitions/count"},
        "fs_blocks": {"$ref": "#/definitions/count"},
        "fs_block_size": {"$ref": "#/definitions/count"},
        "features": {
          "type": "array",
          "items": {"type": "string"}
        },
        "uuid": {"type": "string"}
      }
    }
  },
  "properties": {
    "_comment": {},
    "metadata": {
      "type": "object",
      "required": ["block_size", "fs_block_size"],
      "properties": {
        "block_size": {"$ref": "#/definitions/count"},
        "fs_block_size": {"$ref": "#/definitions/count"}
      }
    },
    "layouts": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "array",
        "items": {"$ref": "#/definitions/partition"}
      }
    }
  }
}
`
