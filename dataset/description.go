package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/sirupsen/logrus"

	"github.com/ltss/ltss-api/schema"
)

var ErrNoSelectors = errors.New("data description has no model selectors")

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "dataset")
}

// LoadDataDescription reads the data description file. A description
// without model selectors is rejected since neither the models nor the
// distributions can be built from it.
func LoadDataDescription(path string) (*schema.DataDescription, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load data description from %q: %w", path, err)
	}

	var d schema.DataDescription
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("cannot parse data description %q: %w", path, err)
	}

	if len(d.ModelSelectors) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSelectors, path)
	}

	log.WithField("selectors", len(d.ModelSelectors)).Infof("loaded data description from %s", path)
	return &d, nil
}
