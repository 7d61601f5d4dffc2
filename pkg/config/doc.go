// Package config provides configuration management for the Epicor bridge.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention EPICORBRIDGE_SECTION_FIELD.
// For example:
//
//   - EPICORBRIDGE_EPICOR_HOST overrides epicor.host
//   - EPICORBRIDGE_EPICOR_INTEGRATION_PASSWORD overrides epicor.integration_password
//   - EPICORBRIDGE_GATEWAY_API_KEYS overrides gateway.api_keys (comma separated)
//
// Credentials are usually supplied this way and kept out of the file.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Secret References
//
// The integration password, the ERP API key and the gateway API keys may
// hold ${secret:name} references instead of literal values. They pass
// validation as non-empty strings and are resolved by pkg/security/secrets
// before any component is built.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	epicor:
//	  host: "https://erp.example.com"
//	  instance: "ERP11Prod"
//	  company: "EPIC06"
//	  integration_user: "integration"
//	  integration_password: "${secret:erp-password}"
//	  license_type_guid: "00000003-b615-4300-957b-34956697f040"
//
//	session:
//	  renew_interval: 5m
//
//	gateway:
//	  api_keys: ["change-me"]
//
//	catalog:
//	  queries:
//	    - name: customers
//	      baq_id: CustomerList
//	      required_params: [zipCode]
//	  functions:
//	    - name: create-order
//	      library: OrderLib
//	      selector: OrderType
//	      variants:
//	        oca: CreateOcaOrder
//	        tendon: CreateTendonOrder
package config
