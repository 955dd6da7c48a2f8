package kernel

// Actor identifies who is performing an annotation action. Authentication
// itself happens upstream; by the time a request reaches the engine the
// reviewer flag is already resolved.
type Actor struct {
	Username string `json:"username"`
	Reviewer bool   `json:"reviewer"`
}

// System is the actor recorded for machine-generated transitions, such as
// pre-labelling done by the extraction model.
var System = Actor{Username: "inhouse-model"}

// IsValid reports whether the actor carries a usable identity.
func (a Actor) IsValid() bool { return a.Username != "" }

// CanReview reports whether the actor may accept or reject annotations.
func (a Actor) CanReview() bool { return a.Reviewer }
