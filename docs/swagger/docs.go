// Package swagger /api/v1 的 OpenAPI 2.0 文档, 结构与 swag init 的输出一致, 随 handler 注解手工维护
package swagger

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
        "/guard/check": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["guard"],
                "summary": "执行前检查",
                "parameters": [
                    {
                        "description": "交易指纹",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/request.CheckTransactionRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.CheckView"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/guard/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["guard"],
                "summary": "Guard 参数",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.GuardConfigView"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/guard/executed": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["guard"],
                "summary": "执行后钩子",
                "parameters": [
                    {
                        "description": "执行结果",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/request.ExecutedRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/response.Response"}
                    }
                }
            }
        },
        "/guard/freeze": {
            "get": {
                "produces": ["application/json"],
                "tags": ["guard"],
                "summary": "全局冻结状态",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.FreezeStatusView"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/transactions/fingerprint": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "计算交易指纹",
                "parameters": [
                    {
                        "description": "Safe 交易参数",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/request.TransactionRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.FingerprintView"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/transactions/queue": {
            "post": {
                "description": "submitter 为调用方自报地址, 仅作记录, 不参与鉴权",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "提交 Safe 多签并入队",
                "parameters": [
                    {
                        "description": "交易与多签",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/request.QueueTransactionRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.QueueEntryView"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/transactions/{fingerprint}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "查询交易状态",
                "parameters": [
                    {"type": "string", "description": "交易指纹", "name": "fingerprint", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.TransactionStatusView"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/transactions/{fingerprint}/votes": {
            "post": {
                "description": "签名消息绑定当前入队检查点 queued_at, 重新入队后需要重新签署",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "投否决票",
                "parameters": [
                    {"type": "string", "description": "交易指纹", "name": "fingerprint", "in": "path", "required": true},
                    {
                        "description": "投票与签名",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/request.CastVoteRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.VoteReceiptView"}}}
                            ]
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.CheckView": {
            "type": "object",
            "properties": {
                "allowed": {"type": "boolean"}
            }
        },
        "handler.FingerprintView": {
            "type": "object",
            "properties": {
                "fingerprint": {"type": "string"}
            }
        },
        "handler.FreezeStatusView": {
            "type": "object",
            "properties": {
                "accumulating": {"type": "boolean"},
                "frozen": {"type": "boolean"},
                "frozen_at": {"type": "integer"},
                "weight": {"type": "string"},
                "window_start": {"type": "integer"}
            }
        },
        "handler.GuardConfigView": {
            "type": "object",
            "properties": {
                "chain_id": {"type": "string"},
                "clock": {"type": "string"},
                "execution_delay": {"type": "integer"},
                "freeze_threshold": {"type": "string"},
                "freeze_window": {"type": "integer"},
                "owner": {"type": "string"},
                "safe": {"type": "string"},
                "veto_threshold": {"type": "string"},
                "votes_token": {"type": "string"},
                "voting_window": {"type": "integer"}
            }
        },
        "handler.QueueEntryView": {
            "type": "object",
            "properties": {
                "fingerprint": {"type": "string"},
                "queued_at": {"type": "integer"},
                "submitter": {"type": "string"}
            }
        },
        "handler.TransactionStatusView": {
            "type": "object",
            "properties": {
                "delay_elapsed": {"type": "boolean"},
                "fingerprint": {"type": "string"},
                "queued": {"type": "boolean"},
                "queued_at": {"type": "integer"},
                "submitter": {"type": "string"},
                "veto_weight": {"type": "string"},
                "vetoed": {"type": "boolean"}
            }
        },
        "handler.VoteReceiptView": {
            "type": "object",
            "properties": {
                "fingerprint": {"type": "string"},
                "freeze_counted": {"type": "boolean"},
                "freeze_weight": {"type": "string"},
                "frozen": {"type": "boolean"},
                "veto_weight": {"type": "string"},
                "vetoed": {"type": "boolean"},
                "voter": {"type": "string"},
                "weight": {"type": "string"},
                "window": {"type": "integer"}
            }
        },
        "request.CastVoteRequest": {
            "type": "object",
            "required": ["signature", "voter"],
            "properties": {
                "freeze": {"type": "boolean"},
                "signature": {"type": "string"},
                "voter": {"type": "string"}
            }
        },
        "request.CheckTransactionRequest": {
            "type": "object",
            "required": ["fingerprint"],
            "properties": {
                "fingerprint": {"type": "string"}
            }
        },
        "request.ExecutedRequest": {
            "type": "object",
            "required": ["fingerprint"],
            "properties": {
                "fingerprint": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "request.QueueTransactionRequest": {
            "type": "object",
            "required": ["signatures", "transaction"],
            "properties": {
                "signatures": {"type": "string"},
                "submitter": {"type": "string"},
                "transaction": {"$ref": "#/definitions/request.TransactionRequest"}
            }
        },
        "request.TransactionRequest": {
            "type": "object",
            "required": ["to"],
            "properties": {
                "base_gas": {"type": "string"},
                "data": {"type": "string"},
                "gas_price": {"type": "string"},
                "gas_token": {"type": "string"},
                "operation": {"type": "integer", "enum": [0, 1]},
                "refund_receiver": {"type": "string"},
                "safe_tx_gas": {"type": "string"},
                "to": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "msg": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Guard Core API",
	Description:      "Safe 交易守卫: 入队延迟, 代币加权否决与全局冻结",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
