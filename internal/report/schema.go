package report

// Schema is the JSON Schema (Draft 2020-12) for the fixcheck JSON
// output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/fixcheck/verification-report.schema.json",
  "title": "fixcheck Verification Report",
  "description": "Output schema for fixcheck run --format=json",
  "type": "object",
  "required": ["version", "summary", "results"],
  "properties": {
    "version": {
      "type": "string",
      "description": "fixcheck version"
    },
    "summary": {
      "type": "object",
      "required": ["total", "passed", "failed"],
      "properties": {
        "total": { "type": "integer", "minimum": 0 },
        "passed": { "type": "integer", "minimum": 0 },
        "failed": { "type": "integer", "minimum": 0 }
      }
    },
    "results": {
      "type": "array",
      "items": { "$ref": "#/$defs/VerificationResult" }
    }
  },
  "$defs": {
    "VerificationResult": {
      "type": "object",
      "required": ["id", "name", "mode", "analyzer", "passed", "diagnostics", "fixes", "metadata"],
      "properties": {
        "id": {
          "type": "string",
          "pattern": "^vr-[0-9a-f]{8}$",
          "description": "Stable identifier (vr-XXXXXXXX)"
        },
        "name": { "type": "string" },
        "mode": {
          "type": "string",
          "enum": ["valid", "diagnostics", "fix", "fixall", "nofix"]
        },
        "analyzer": { "type": "string" },
        "passed": { "type": "boolean" },
        "failure": { "$ref": "#/$defs/Failure" },
        "diagnostics": {
          "type": "array",
          "items": { "$ref": "#/$defs/Diagnostic" }
        },
        "fixes": {
          "type": "array",
          "items": { "$ref": "#/$defs/FixApplication" }
        },
        "metadata": { "$ref": "#/$defs/Metadata" }
      }
    },
    "Failure": {
      "type": "object",
      "required": ["kind", "message"],
      "properties": {
        "kind": {
          "type": "string",
          "description": "Failure category, e.g. COUNT_MISMATCH"
        },
        "message": { "type": "string" }
      }
    },
    "Diagnostic": {
      "type": "object",
      "required": ["id", "severity", "message", "location"],
      "properties": {
        "id": { "type": "string" },
        "severity": {
          "type": "string",
          "enum": ["hidden", "info", "warning", "error"]
        },
        "message": { "type": "string" },
        "location": { "$ref": "#/$defs/Location" },
        "additional_locations": {
          "type": "array",
          "items": { "$ref": "#/$defs/Location" }
        }
      }
    },
    "Location": {
      "type": "object",
      "required": ["document", "start", "end", "position"],
      "properties": {
        "document": { "type": "string" },
        "start": { "type": "integer", "minimum": 0 },
        "end": { "type": "integer", "minimum": 0 },
        "position": {
          "type": "object",
          "required": ["line", "column"],
          "properties": {
            "line": {
              "type": "integer",
              "minimum": 0,
              "description": "Zero-based line"
            },
            "column": {
              "type": "integer",
              "minimum": 0,
              "description": "Zero-based byte column"
            }
          }
        }
      }
    },
    "FixApplication": {
      "type": "object",
      "required": ["iteration", "diagnostics", "provider", "action", "changed_documents"],
      "properties": {
        "iteration": { "type": "integer", "minimum": 1 },
        "diagnostics": {
          "oneOf": [
            { "type": "array", "items": { "$ref": "#/$defs/Diagnostic" } },
            { "type": "null" }
          ]
        },
        "provider": { "type": "string" },
        "action": { "type": "string" },
        "changed_documents": {
          "oneOf": [
            { "type": "array", "items": { "type": "string" } },
            { "type": "null" }
          ]
        }
      }
    },
    "Metadata": {
      "type": "object",
      "required": ["version", "go_version", "duration_ms"],
      "properties": {
        "version": { "type": "string" },
        "go_version": { "type": "string" },
        "duration_ms": {
          "type": "integer",
          "description": "Verification duration in milliseconds"
        },
        "timestamp": {
          "type": "string",
          "description": "Start time, RFC 3339"
        }
      }
    }
  }
}`
