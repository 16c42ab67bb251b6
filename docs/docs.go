// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/geocode": {
            "get": {
                "tags": ["geocoding"],
                "summary": "Geocode an address",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Address", "name": "q", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/geocoding.Result"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/maps/sessions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["maps"],
                "summary": "Open a map session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Stored view metadata", "name": "query", "in": "body", "schema": {"$ref": "#/definitions/models.Query"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/maps/sessions/{id}/load": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["maps"],
                "summary": "Load map data",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true},
                    {"description": "Load params", "name": "params", "in": "body", "schema": {"$ref": "#/definitions/models.Query"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.State"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/maps/sessions/{id}/state": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["maps"],
                "summary": "Current map state",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.State"}}
                }
            }
        },
        "/maps/sessions/{id}/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["maps"],
                "summary": "Stream state and notification events",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/maps/sessions/{id}/stop": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["maps"],
                "summary": "Stop fetching coordinates",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/maps/sessions/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["maps"],
                "summary": "Close a map session",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/geo/location/data": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["inspection"],
                "summary": "Estate boundaries of a company",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Company id", "name": "company_id", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/get/inspection/location/data": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["inspection"],
                "summary": "Inspection routes grouped by employee",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Company id", "name": "company_id", "in": "query"},
                    {"type": "string", "description": "Employee name filter", "name": "q", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/maps/locations/{id}/chart": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["maps"],
                "summary": "Monthly harvest weight of a block or estate",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Location id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "estate.block", "description": "Location model", "name": "model", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HarvestChart"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/settings/mapbox-token/validate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["settings"],
                "summary": "Check a MapBox token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Language of the message", "name": "lang", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/geocoding.TokenCheck"}}}
            }
        }
    },
    "definitions": {
        "errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.HarvestMonth": {
            "type": "object",
            "properties": {
                "month": {"type": "string"},
                "harvest_main_product": {"type": "string"},
                "harvest_other_product": {"type": "string"},
                "total_weight": {"type": "number"},
                "avg_harvest_weight": {"type": "number"},
                "avg_other_harvest_weight": {"type": "number"}
            }
        },
        "models.HarvestChart": {
            "type": "object",
            "properties": {
                "monthly": {"type": "array", "items": {"$ref": "#/definitions/models.HarvestMonth"}},
                "today": {"$ref": "#/definitions/models.HarvestMonth"}
            }
        },
        "geocoding.Result": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lon": {"type": "number"},
                "importance": {"type": "number"},
                "display_name": {"type": "string"}
            }
        },
        "geocoding.TokenCheck": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "status": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "models.Query": {
            "type": "object",
            "properties": {
                "resModel": {"type": "string"},
                "domain": {"type": "array", "items": {"type": "array", "items": {}}},
                "fieldNames": {"type": "array", "items": {"type": "string"}},
                "groupBy": {"type": "array", "items": {"type": "string"}},
                "locationField": {"type": "string"},
                "routing": {"type": "boolean"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "defaultOrder": {"type": "object", "properties": {"name": {"type": "string"}, "asc": {"type": "boolean"}}},
                "context": {"type": "object"}
            }
        },
        "models.State": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "fetchingCoordinates": {"type": "boolean"},
                "groupByKey": {"type": "string"},
                "isGrouped": {"type": "boolean"},
                "numberOfLocatedRecords": {"type": "integer"},
                "locationIds": {"type": "array", "items": {"type": "integer"}},
                "locations": {"type": "array", "items": {"type": "object"}},
                "recordGroups": {"type": "array", "items": {"type": "object"}},
                "records": {"type": "array", "items": {"type": "object"}},
                "routes": {"type": "array", "items": {"type": "object"}},
                "routingError": {"type": "string"},
                "shouldUpdatePosition": {"type": "boolean"},
                "useMapBoxAPI": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Maps API",
	Description:      "Map sessions, geocoding and inspection maps.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
