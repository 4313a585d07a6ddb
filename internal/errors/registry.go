package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Tree invariants (F001-F009)
	// ============================================

	"F001": {
		Category:   CategoryInvariant,
		Message:    "Host adapter returned no node",
		Suggestion: "CreateNode must return a non-nil node for every tag it is given.",
	},
	"F002": {
		Category:   CategoryHooks,
		Message:    "Hook order changed between renders",
		Suggestion: "Call hooks unconditionally and in the same order on every render.",
	},
	"F003": {
		Category: CategoryInvariant,
		Message:  "Fiber has no host ancestor",
	},
	"F004": {
		Category:   CategoryHooks,
		Message:    "Hook called outside a component render",
		Suggestion: "Call Use* functions only from a component's Render function.",
	},
	"F005": {
		Category: CategoryInvariant,
		Message:  "Traversed a superseded fiber",
	},
	"F006": {
		Category: CategoryInvariant,
		Message:  "Re-rendered component is no longer linked to its parent",
	},

	// ============================================
	// Config Errors (F010-F019)
	// ============================================

	"F010": {
		Category:   CategoryConfig,
		Message:    "Config file unreadable",
		Suggestion: "Check that fiber.json exists and is valid JSON.",
	},
	"F011": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},

	// ============================================
	// CLI Errors (F020-F029)
	// ============================================

	"F020": {
		Category: CategoryCLI,
		Message:  "Could not create render root",
	},
	"F021": {
		Category:   CategoryCLI,
		Message:    "Server failed",
		Suggestion: "Check that the serve address is free.",
	},

	// ============================================
	// Stream Errors (F030-F039)
	// ============================================

	"F030": {
		Category: CategoryStream,
		Message:  "WebSocket upgrade failed",
	},
	"F031": {
		Category: CategoryStream,
		Message:  "Op batch could not be delivered",
	},

	// ============================================
	// Export Errors (F040-F049)
	// ============================================

	"F040": {
		Category:   CategoryExport,
		Message:    "No export bucket configured",
		Suggestion: "Set export.bucket in fiber.json or pass --bucket.",
	},
	"F041": {
		Category: CategoryExport,
		Message:  "Snapshot upload failed",
	},

	// ============================================
	// Journal Errors (F050-F059)
	// ============================================

	"F050": {
		Category: CategoryJournal,
		Message:  "Commit journal unavailable",
	},
	"F051": {
		Category: CategoryJournal,
		Message:  "Commit journal write failed",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
