package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ltss/ltss-api/distribution"
	"github.com/ltss/ltss-api/schema"
)

const publishAttempts = 3

var (
	ErrBundleNotFound = fmt.Errorf("distribution bundle not found")
)

// BundleArchive keeps every published distribution bundle under an
// increasing version number
type BundleArchive interface {
	PublishBundle(ctx context.Context, bundle *schema.DistributionBundle) (int64, error)
	LatestBundle(ctx context.Context) (*schema.DistributionBundle, int64, error)
}

// curveDocument is one category curve. Category keys such as "2.5" are not
// safe as document field names, so curves are stored as a list.
type curveDocument struct {
	Selector string    `bson:"selector"`
	Category string    `bson:"category"`
	Values   []float64 `bson:"values"`
}

type bundleDocument struct {
	BundleVersion    int64           `bson:"bundle_version"`
	Schema           string          `bson:"schema"`
	Version          int             `bson:"version"`
	Selectors        []string        `bson:"selectors"`
	Cumulative       bool            `bson:"cumulative"`
	Demeaned         bool            `bson:"demeaned"`
	BaseDistribution []float64       `bson:"base_distribution"`
	Curves           []curveDocument `bson:"curves"`
	CreatedAt        time.Time       `bson:"created_at"`
	PublishedAt      time.Time       `bson:"published_at"`
}

// PublishBundle stores a valid bundle as the next version
func (m *mongoDB) PublishBundle(ctx context.Context, bundle *schema.DistributionBundle) (int64, error) {
	if err := distribution.Validate(bundle); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := m.collection(schema.DistributionCollection)
	doc := toBundleDocument(bundle)

	for attempt := 1; ; attempt++ {
		latest, err := m.latestVersion(ctx, c)
		if err != nil {
			return 0, err
		}

		doc.BundleVersion = latest + 1
		doc.PublishedAt = time.Now().UTC()
		_, err = c.InsertOne(ctx, doc)
		if err == nil {
			break
		}
		if !mongo.IsDuplicateKeyError(err) || attempt == publishAttempts {
			return 0, err
		}
		log.WithField("prefix", mongoLogPrefix).Warnf("bundle version %d taken, retrying", doc.BundleVersion)
	}

	log.WithField("prefix", mongoLogPrefix).Infof("published distribution bundle version %d", doc.BundleVersion)
	return doc.BundleVersion, nil
}

// LatestBundle returns the bundle with the highest version
func (m *mongoDB) LatestBundle(ctx context.Context) (*schema.DistributionBundle, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bundleDocument
	opts := options.FindOne().SetSort(bson.M{"bundle_version": -1})
	if err := m.collection(schema.DistributionCollection).FindOne(ctx, bson.M{}, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, 0, ErrBundleNotFound
		}
		return nil, 0, err
	}

	bundle := fromBundleDocument(doc)
	if err := distribution.Validate(bundle); err != nil {
		return nil, 0, fmt.Errorf("bundle version %d: %w", doc.BundleVersion, err)
	}
	return bundle, doc.BundleVersion, nil
}

func (m *mongoDB) latestVersion(ctx context.Context, c *mongo.Collection) (int64, error) {
	var doc struct {
		BundleVersion int64 `bson:"bundle_version"`
	}
	opts := options.FindOne().
		SetSort(bson.M{"bundle_version": -1}).
		SetProjection(bson.M{"bundle_version": 1})
	if err := c.FindOne(ctx, bson.M{}, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	return doc.BundleVersion, nil
}

func toBundleDocument(bundle *schema.DistributionBundle) bundleDocument {
	selectors := make([]string, 0, len(bundle.Distributions))
	for s := range bundle.Distributions {
		selectors = append(selectors, s)
	}
	sort.Strings(selectors)

	curves := make([]curveDocument, 0)
	for _, s := range selectors {
		categories := make([]string, 0, len(bundle.Distributions[s]))
		for c := range bundle.Distributions[s] {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		for _, c := range categories {
			curves = append(curves, curveDocument{
				Selector: s,
				Category: c,
				Values:   bundle.Distributions[s][c],
			})
		}
	}

	return bundleDocument{
		Schema:           bundle.Schema,
		Version:          bundle.Version,
		Selectors:        bundle.Selectors,
		Cumulative:       bundle.IsCumulative(),
		Demeaned:         bundle.Demeaned,
		BaseDistribution: bundle.BaseDistribution,
		Curves:           curves,
		CreatedAt:        bundle.CreatedAt,
	}
}

func fromBundleDocument(doc bundleDocument) *schema.DistributionBundle {
	cumulative := doc.Cumulative
	bundle := &schema.DistributionBundle{
		Schema:           doc.Schema,
		Version:          doc.Version,
		Selectors:        doc.Selectors,
		Cumulative:       &cumulative,
		Demeaned:         doc.Demeaned,
		BaseDistribution: doc.BaseDistribution,
		Distributions:    map[string]map[string]schema.Curve{},
		CreatedAt:        doc.CreatedAt,
	}

	for _, c := range doc.Curves {
		categories, ok := bundle.Distributions[c.Selector]
		if !ok {
			categories = map[string]schema.Curve{}
			bundle.Distributions[c.Selector] = categories
		}
		categories[c.Category] = c.Values
	}
	return bundle
}
