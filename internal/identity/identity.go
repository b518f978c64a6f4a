// Package identity computes deterministic plan identities.
package identity

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/slfconversion/bpmigrate/internal/plan"
)

// Namespace is the UUID v5 namespace for plan identities.
// Computed as: uuid.NewSHA1(uuid.NameSpaceDNS, []byte("bpmigrate.slfconversion.dev"))
var Namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("bpmigrate.slfconversion.dev"))

// PlanID is the UUID v5 of the plan's normalised document. Two plans with
// the same content share an ID regardless of the file they came from or
// the order of their pin rewrite rules.
func PlanID(p *plan.Plan) string {
	// Map keys marshal sorted, so the encoding is canonical.
	data, err := json.Marshal(p.Document())
	if err != nil {
		// Document holds only strings, bools and plain structs.
		panic(err)
	}
	return uuid.NewSHA1(Namespace, data).String()
}
