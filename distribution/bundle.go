package distribution

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"

	"github.com/ltss/ltss-api/schema"
)

const boundTolerance = 1e-9

var (
	ErrIncompatibleBundle = errors.New("incompatible distribution bundle")
	ErrMissingMember      = errors.New("distribution bundle member is missing")
	ErrInvalidCurve       = errors.New("invalid distribution curve")
)

// Save writes the bundle as JSON. The file is replaced atomically so a
// reader never sees a partial bundle.
func Save(path string, bundle *schema.DistributionBundle) error {
	if err := Validate(bundle); err != nil {
		return err
	}

	tmp, err := ioutil.TempFile(filepath.Dir(path), ".bundle-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, bundle); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	log.Infof("saved distribution bundle with %d selectors to %s", len(bundle.Distributions), path)
	return nil
}

// Load reads and validates a bundle saved by Save
func Load(path string) (*schema.DistributionBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load distribution bundle: %w", err)
	}
	defer f.Close()

	bundle, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot load distribution bundle %s: %w", path, err)
	}
	return bundle, nil
}

func Encode(w io.Writer, bundle *schema.DistributionBundle) error {
	return json.NewEncoder(w).Encode(bundle)
}

// Decode reads one bundle document and validates it
func Decode(r io.Reader) (*schema.DistributionBundle, error) {
	var bundle schema.DistributionBundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, err
	}

	if err := Validate(&bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Validate checks the schema tag and version, the presence of the required
// members and the shape of every curve. Values of a bundle that is not
// de-meaned must lie in [0, 1].
func Validate(bundle *schema.DistributionBundle) error {
	if bundle == nil {
		return fmt.Errorf("%w: empty bundle", ErrMissingMember)
	}

	if bundle.Schema != schema.DistributionSchema {
		return fmt.Errorf("%w: schema %q", ErrIncompatibleBundle, bundle.Schema)
	}
	if bundle.Version < 1 || bundle.Version > schema.DistributionSchemaVersion {
		return fmt.Errorf("%w: version %d", ErrIncompatibleBundle, bundle.Version)
	}

	switch {
	case bundle.Distributions == nil:
		return fmt.Errorf("%w: distributions", ErrMissingMember)
	case bundle.BaseDistribution == nil:
		return fmt.Errorf("%w: base_distribution", ErrMissingMember)
	case bundle.Cumulative == nil:
		return fmt.Errorf("%w: cumulative", ErrMissingMember)
	}

	if err := validateCurve(bundle.BaseDistribution, true); err != nil {
		return fmt.Errorf("base distribution: %w", err)
	}

	for selector, categories := range bundle.Distributions {
		for category, curve := range categories {
			if err := validateCurve(curve, !bundle.Demeaned); err != nil {
				return fmt.Errorf("%s=%s: %w", selector, category, err)
			}
		}
	}
	return nil
}

func validateCurve(curve schema.Curve, bounded bool) error {
	if len(curve) != schema.DaySupport {
		return fmt.Errorf("%w: %d days instead of %d", ErrInvalidCurve, len(curve), schema.DaySupport)
	}

	for day, v := range curve {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: day %d is not finite", ErrInvalidCurve, day)
		}
		if bounded && (v < -boundTolerance || v > 1+boundTolerance) {
			return fmt.Errorf("%w: day %d value %v outside [0, 1]", ErrInvalidCurve, day, v)
		}
	}
	return nil
}
