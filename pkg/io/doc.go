// Package io reads and writes page documents.
//
// # Format
//
// A page is a JSON (or YAML) document:
//
//	{
//	  "id": "landing",
//	  "sections": [{
//	    "id": "hero",
//	    "order": 0,
//	    "position": {"desktop": {"h": "full"}, "mobile": {"h": 30}},
//	    "bricks": [{
//	      "id": "headline",
//	      "type": "text",
//	      "position": {
//	        "desktop": {"x": 2, "y": 4, "w": 12, "h": 3},
//	        "mobile":  {"x": 0, "y": 0, "w": "full", "h": 3, "manualHeight": 96}
//	      },
//	      "props": {"text": "Hello"}
//	    }]
//	  }]
//	}
//
// Positions are integers in grid cells; "full" spans every column (or, for
// section heights, the viewport).
//
// # Validation
//
// [ReadPage] checks a document in three steps: against the embedded JSON
// Schema (shape and types), by decoding into a page.Page, and with
// page.Validate (ids, parents, bounds). Every failure has code
// INVALID_DOCUMENT; schema and structural problems are listed one per line.
//
// # Files
//
// [ImportPage] and [ExportPage] pick the format from the file extension:
// ".yaml" and ".yml" are YAML, everything else JSON.
package io
