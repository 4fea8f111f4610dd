package flows

import (
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// Deps groups flow dependency sets. The root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Save          SaveDeps
	Verify        VerifyDeps
	Invalidate    InvalidateDeps
	Introspection IntrospectionDeps
}

// NewDeps wires every flow to the same signer, store and clock.
func NewDeps(store session.Store, signer *jwt.Manager, now func() time.Time, newID func() string) Deps {
	return Deps{
		Save: SaveDeps{
			NewID: newID,
			Now:   now,
			Sign:  signer.Sign,
			Store: store,
		},
		Verify: VerifyDeps{
			Parse: signer.Parse,
			Now:   now,
			Store: store,
		},
		Invalidate: InvalidateDeps{
			Parse: signer.ParseForRevocation,
			Store: store,
		},
		Introspection: IntrospectionDeps{
			Now:   now,
			Store: store,
		},
	}
}
