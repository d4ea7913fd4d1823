package trip

import (
	"reflect"

	"github.com/google/uuid"
	odiff "github.com/r3labs/diff/v3"

	db "traveleasy/db/db"
)

// tripChanged reports whether an edit actually altered the document.
// A write that changes nothing publishes no feed event, so subscribers
// only wake up for real changes.
func tripChanged(before, after *db.Trip) bool {
	changelog, err := tripDiffer().Diff(before, after)
	if err != nil {
		// When the diff cannot be computed, assume a change rather
		// than swallowing an update.
		return true
	}
	return len(changelog) > 0
}

func tripDiffer() *odiff.Differ {
	differ, err := odiff.NewDiffer(odiff.CustomValueDiffers(&uuidComparer{}))
	if err != nil {
		panic(err)
	}
	return differ
}

// uuidComparer compares uuid.UUID fields as opaque values so the
// differ does not descend into their bytes.
type uuidComparer struct{}

var uuidType = reflect.TypeOf(uuid.UUID{})

func (c *uuidComparer) Match(a, b reflect.Value) bool {
	aok := a.IsValid() && a.Type() == uuidType
	bok := b.IsValid() && b.Type() == uuidType
	return (aok && bok) || (!a.IsValid() && bok) || (!b.IsValid() && aok)
}

func (c *uuidComparer) Diff(_ odiff.DiffType, _ odiff.DiffFunc, cl *odiff.Changelog, path []string, a reflect.Value, b reflect.Value, _ interface{}) error {
	valA := reflect.Indirect(a)
	valB := reflect.Indirect(b)

	if !valA.IsValid() || !valB.IsValid() {
		if valA.IsValid() != valB.IsValid() {
			cl.Add(odiff.UPDATE, path, a.Interface(), b.Interface())
		}
		return nil
	}

	u1 := valA.Interface().(uuid.UUID)
	u2 := valB.Interface().(uuid.UUID)
	if u1 != u2 {
		cl.Add(odiff.UPDATE, path, u1, u2)
	}
	return nil
}

func (c *uuidComparer) InsertParentDiffer(func(path []string, a reflect.Value, b reflect.Value, p interface{}) error) {
	// uuid is a leaf value
}
