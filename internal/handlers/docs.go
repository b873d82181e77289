package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type object = map[string]interface{}

// RegisterDocsRoutes registers the OpenAPI document and the Swagger UI
func RegisterDocsRoutes(router *mux.Router) {
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods(http.MethodGet)
	router.HandleFunc("/api/docs", SwaggerUI).Methods(http.MethodGet)
}

// OpenAPISpec returns the OpenAPI 3.0 document for the lookup API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, openAPIDocument(), http.StatusOK)
}

func jsonResponse(description, schemaRef string) object {
	return object{
		"description": description,
		"content": object{
			"application/json": object{
				"schema": object{"$ref": "#/components/schemas/" + schemaRef},
			},
		},
	}
}

func openAPIDocument() object {
	months := object{}
	for _, name := range []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"} {
		months[name] = object{"type": "number", "nullable": true}
	}

	return object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "Airport Weather Map API",
			"description": "Nearest NOAA weather stations and monthly low temperatures for US airports, plus the pre-rendered map artifacts",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": object{
			"/api/airports": object{
				"get": object{
					"summary":     "List airports",
					"description": "All airports with a rendered map, in table order",
					"responses": object{
						"200": jsonResponse("Airport list", "AirportList"),
					},
				},
			},
			"/api/airports/{iata}/nearest": object{
				"get": object{
					"summary":     "Nearest stations",
					"description": "The k stations closest to an airport, ascending by distance, ties broken by station id",
					"parameters": []object{
						{
							"name":        "iata",
							"in":          "path",
							"description": "Airport code exactly as stored, for example ORD",
							"required":    true,
							"schema":      object{"type": "string"},
						},
						{
							"name":        "k",
							"in":          "query",
							"description": "Number of stations (default: 5)",
							"required":    false,
							"schema":      object{"type": "integer", "default": 5, "minimum": 1, "maximum": maxStationCount},
						},
					},
					"responses": object{
						"200": jsonResponse("Nearest stations", "NearestResponse"),
						"400": jsonResponse("Invalid k", "Error"),
						"404": jsonResponse("Unknown airport code", "Error"),
					},
				},
			},
			"/assets/{file}": object{
				"get": object{
					"summary":     "Map artifact",
					"description": "Pre-rendered Leaflet map for one airport, for example /assets/ORD.html",
					"parameters": []object{
						{"name": "file", "in": "path", "required": true, "schema": object{"type": "string"}},
					},
					"responses": object{
						"200": object{"description": "HTML document", "content": object{"text/html": object{}}},
						"404": object{"description": "No artifact for this code"},
					},
				},
			},
			"/health": object{
				"get": object{
					"summary": "Health check",
					"responses": object{
						"200": jsonResponse("Healthy", "Health"),
						"503": jsonResponse("A dependency is failing", "Health"),
					},
				},
			},
		},
		"components": object{
			"schemas": object{
				"Airport": object{
					"type": "object",
					"properties": object{
						"iata": object{"type": "string"},
						"lat":  object{"type": "number"},
						"lon":  object{"type": "number"},
					},
				},
				"AirportList": object{
					"type": "object",
					"properties": object{
						"data":  object{"type": "array", "items": object{"$ref": "#/components/schemas/Airport"}},
						"total": object{"type": "integer"},
					},
				},
				"NearbyStation": object{
					"type": "object",
					"properties": object{
						"id":           object{"type": "string"},
						"name":         object{"type": "string"},
						"lat":          object{"type": "number"},
						"lon":          object{"type": "number"},
						"distance_mi":  object{"type": "number"},
						"monthly_lows": object{"type": "object", "properties": months},
					},
				},
				"NearestResponse": object{
					"type": "object",
					"properties": object{
						"airport":       object{"$ref": "#/components/schemas/Airport"},
						"stations":      object{"type": "array", "items": object{"$ref": "#/components/schemas/NearbyStation"}},
						"artifact_path": object{"type": "string", "example": "assets/ORD.html"},
					},
				},
				"Health": object{
					"type": "object",
					"properties": object{
						"status":    object{"type": "string"},
						"timestamp": object{"type": "string", "format": "date-time"},
						"checks":    object{"type": "object", "additionalProperties": object{"type": "string"}},
						"tables":    object{"type": "object", "additionalProperties": object{"type": "integer"}},
					},
				},
				"Error": object{
					"type": "object",
					"properties": object{
						"error":   object{"type": "string"},
						"message": object{"type": "string"},
						"code":    object{"type": "integer"},
					},
				},
			},
		},
	}
}
