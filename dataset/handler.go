package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ltss/ltss-api/schema"
	"github.com/ltss/ltss-api/vectorise"
)

var ErrNoSamples = errors.New("no usable training samples")

// HandlerOptions control how records become training samples
type HandlerOptions struct {
	// MaxSamples stops reading once this many samples are kept, 0 for all
	MaxSamples int
	// FilterMinor drops records whose IS_MAJOR flag is not 1
	FilterMinor bool
	// MaxLoSClip caps the length of stay, 0 disables clipping
	MaxLoSClip int
	// Shuffle shuffles samples before the train/validation split
	Shuffle bool
	// Seed makes shuffling and random sampling reproducible
	Seed *int64
	// TrainProportion is the share of samples used for training
	TrainProportion float64
}

func DefaultHandlerOptions() HandlerOptions {
	return HandlerOptions{
		FilterMinor:     true,
		MaxLoSClip:      schema.DaySupport,
		TrainProportion: 0.8,
	}
}

// HandlerStats counts what happened to the input records
type HandlerStats struct {
	Read            int
	DroppedNegative int
	DroppedMinor    int
	Clipped         int
}

// Handler vectorises records into training samples and carves them into
// reproducible training and validation splits. Sampling advances a shared
// random source, so a Handler must not be used from several goroutines.
type Handler struct {
	opts       HandlerOptions
	selectors  []string
	stats      HandlerStats
	samples    []schema.TrainingSample
	training   []schema.TrainingSample
	validation []schema.TrainingSample
	random     *rand.Rand
}

// NewHandler vectorises the records, keeps the selector fields of each good
// record and splits the result
func NewHandler(records []schema.RawRecord, v *vectorise.Vectoriser, selectors []string, opts HandlerOptions) (*Handler, error) {
	if opts.TrainProportion <= 0 || opts.TrainProportion > 1 {
		return nil, fmt.Errorf("train proportion %v is outside (0, 1]", opts.TrainProportion)
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	h := &Handler{
		opts:      opts,
		selectors: selectors,
		random:    rand.New(rand.NewSource(seed)),
	}

	for _, r := range records {
		if opts.MaxSamples > 0 && len(h.samples) >= opts.MaxSamples {
			break
		}
		h.stats.Read++

		sample, ok := h.sample(v.Vectorise(r))
		if ok {
			h.samples = append(h.samples, sample)
		}
	}

	if len(h.samples) == 0 {
		return nil, fmt.Errorf("%w: %d records read", ErrNoSamples, h.stats.Read)
	}

	h.split()
	log.Info(h.String())
	return h, nil
}

func (h *Handler) sample(vector schema.Vector) (schema.TrainingSample, bool) {
	los := vector[schema.LengthOfStayField]
	if los < 0 {
		h.stats.DroppedNegative++
		return schema.TrainingSample{}, false
	}

	if h.opts.FilterMinor {
		if major, ok := vector[schema.IsMajorField]; !ok || major != 1 {
			h.stats.DroppedMinor++
			return schema.TrainingSample{}, false
		}
	}

	if h.opts.MaxLoSClip > 0 && los > float64(h.opts.MaxLoSClip) {
		los = float64(h.opts.MaxLoSClip)
		h.stats.Clipped++
	}

	return schema.TrainingSample{
		Vector:       VectorToMap(FlattenVector(vector, h.selectors), h.selectors, 1),
		LengthOfStay: int(los),
	}, true
}

func (h *Handler) split() {
	indices := make([]int, len(h.samples))
	for i := range indices {
		indices[i] = i
	}
	if h.opts.Shuffle {
		h.random.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}

	// the training split is never empty while there are samples
	n := int(h.opts.TrainProportion * float64(len(h.samples)))
	if n == 0 {
		n = 1
	}
	for _, i := range indices[:n] {
		h.training = append(h.training, h.samples[i])
	}
	for _, i := range indices[n:] {
		h.validation = append(h.validation, h.samples[i])
	}
}

func (h *Handler) pick(samples []schema.TrainingSample, n int, random bool) []schema.TrainingSample {
	if n <= 0 || n > len(samples) {
		n = len(samples)
	}

	indices := make([]int, len(samples))
	for i := range indices {
		indices[i] = i
	}
	if random {
		h.random.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}

	picked := make([]schema.TrainingSample, 0, n)
	for _, i := range indices[:n] {
		picked = append(picked, samples[i])
	}
	return picked
}

// Training returns n training samples, all of them when n <= 0
func (h *Handler) Training(n int, random bool) []schema.TrainingSample {
	return h.pick(h.training, n, random)
}

// Validation returns n validation samples, all of them when n <= 0
func (h *Handler) Validation(n int, random bool) []schema.TrainingSample {
	return h.pick(h.validation, n, random)
}

func (h *Handler) Stats() HandlerStats {
	return h.stats
}

func (h *Handler) String() string {
	return fmt.Sprintf("data handler: %d records, %d training and %d validation samples (dropped %d negative, %d minor; clipped %d) with %+v",
		len(h.samples), len(h.training), len(h.validation),
		h.stats.DroppedNegative, h.stats.DroppedMinor, h.stats.Clipped, h.optsSummary())
}

func (h *Handler) optsSummary() map[string]interface{} {
	summary := map[string]interface{}{
		"max_samples":      h.opts.MaxSamples,
		"filter_minor":     h.opts.FilterMinor,
		"max_los_clip":     h.opts.MaxLoSClip,
		"shuffle":          h.opts.Shuffle,
		"train_proportion": h.opts.TrainProportion,
	}
	if h.opts.Seed != nil {
		summary["seed"] = *h.opts.Seed
	}
	return summary
}
