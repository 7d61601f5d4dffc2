// Package catalog maps public route names to BAQ queries and function
// library calls.
//
// Entries come from the inline catalog section of the configuration or
// from a separate YAML file:
//
//	queries:
//	  - name: zip-codes
//	    baq_id: ZipCodes
//	    required_params: [zipCode]
//	functions:
//	  - name: create-order
//	    library: OrderEntry
//	    selector: OrderType
//	    variants:
//	      oca: CreateOCAOrder
//	      tendon: CreateTendonOrder
//
// A file catalog can be watched for changes; a Watcher swaps the Registry
// contents atomically and keeps the previous catalog when a reload fails.
package catalog
