// Package docs registers the OpenAPI description served under /swagger.
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
    "paths": {
        "/health": {
            "get": {"tags": ["health"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/advices": {
            "get": {"tags": ["advices"], "summary": "Latest normalized advices", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/advices/{symbol}": {
            "get": {"tags": ["advices"], "summary": "Advice for one symbol", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Asset symbol (e.g., BTC, ETH)", "name": "symbol", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/advices/refetch": {
            "post": {"tags": ["advices"], "summary": "Force a refresh", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/dashboard": {
            "get": {"tags": ["advices"], "summary": "Dashboard summary", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/tokens": {
            "get": {"tags": ["advices"], "summary": "Token catalog", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/sentiment/{symbol}": {
            "get": {"tags": ["sentiment"], "summary": "Sentiment timeline", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Asset symbol (e.g., BTC, ETH)", "name": "symbol", "in": "path", "required": true},
                    {"type": "integer", "default": 7, "description": "Number of days (default 7, max 90)", "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/sentiment/{symbol}/chart.png": {
            "get": {"tags": ["sentiment"], "summary": "Sentiment timeline chart", "produces": ["image/png"],
                "parameters": [
                    {"type": "string", "description": "Asset symbol (e.g., BTC, ETH)", "name": "symbol", "in": "path", "required": true},
                    {"type": "integer", "default": 7, "description": "Number of days (default 7, max 90)", "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/sentiment/compare": {
            "get": {"tags": ["sentiment"], "summary": "Multi-coin sentiment snapshot", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/influencers": {
            "get": {"tags": ["influencers"], "summary": "Tracked influencers", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/influencers/{id}/stance": {
            "get": {"tags": ["influencers"], "summary": "Influencer stance history", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Influencer ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 30, "description": "Number of days (default 30, max 90)", "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/api/whales": {
            "get": {"tags": ["whales"], "summary": "Whale activity with anomaly flags", "produces": ["application/json"],
                "parameters": [{"type": "boolean", "description": "Only return flagged records", "name": "anomalous", "in": "query"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/stoploss": {
            "get": {"tags": ["risk"], "summary": "Take-profit / stop-loss plan", "produces": ["application/json"],
                "parameters": [
                    {"type": "number", "description": "Entry price", "name": "price", "in": "query"},
                    {"type": "string", "description": "Use the latest advised price for this symbol", "name": "symbol", "in": "query"},
                    {"type": "number", "default": 15, "description": "Take-profit percent", "name": "tp", "in": "query"},
                    {"type": "number", "default": 15, "description": "Stop-loss percent", "name": "sl", "in": "query"},
                    {"type": "number", "description": "Position size (default 1)", "name": "qty", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Signal Deck API",
	Description:      "Buy/hold/sell advice feed with illustrative market context.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
