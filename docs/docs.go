package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "FracTracker Complaint Router",
    "description": "Routes FracTracker community reports to state environmental agencies",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/api/submissions/run": {
      "post": {
        "tags": ["submissions"],
        "summary": "Run a submission batch",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [
          {"name": "X-Admin-Key", "in": "header", "type": "string", "required": false},
          {"name": "request", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RunRequest"}}
        ],
        "responses": {
          "200": {"description": "No reports found in timespan", "schema": {"$ref": "#/definitions/RunResponse"}},
          "201": {"description": "Batch completed", "schema": {"$ref": "#/definitions/RunResponse"}},
          "400": {"description": "Invalid date range"},
          "409": {"description": "Batch already running"},
          "500": {"description": "Ingestion or ledger failure"}
        }
      }
    },
    "/api/submissions": {
      "get": {
        "tags": ["submissions"],
        "summary": "List ledger records",
        "produces": ["application/json"],
        "parameters": [
          {"name": "status", "in": "query", "type": "string"},
          {"name": "state", "in": "query", "type": "string"},
          {"name": "report_id", "in": "query", "type": "string"},
          {"name": "limit", "in": "query", "type": "integer", "default": 100},
          {"name": "offset", "in": "query", "type": "integer", "default": 0}
        ],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/api/runs/latest": {
      "get": {
        "tags": ["runs"],
        "summary": "Latest run",
        "produces": ["application/json"],
        "responses": {"200": {"description": "OK"}, "404": {"description": "No runs"}}
      }
    }
  },
  "definitions": {
    "RunRequest": {
      "type": "object",
      "properties": {
        "start_date": {"type": "string", "example": "03-01-2024"},
        "end_date": {"type": "string", "example": "03-02-2024"}
      }
    },
    "RunResponse": {
      "type": "object",
      "properties": {
        "message": {"type": "string"},
        "run_id": {"type": "string"},
        "start_date": {"type": "string"},
        "end_date": {"type": "string"},
        "counts": {
          "type": "object",
          "properties": {
            "reports": {"type": "integer"},
            "skipped": {"type": "integer"},
            "records": {"type": "integer"},
            "submitted": {"type": "integer"},
            "failed": {"type": "integer"},
            "invalid_location": {"type": "integer"},
            "not_configured": {"type": "integer"}
          }
        }
      }
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
