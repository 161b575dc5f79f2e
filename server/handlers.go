package server

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/correlation"
	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/raster"
	"github.com/lixenwraith/gamatch/session"
)

// errBadRequest marks request validation failures
var errBadRequest = errors.New("bad request")

// errBusy is returned when a search is already advancing
var errBusy = errors.New("search is advancing")

// status maps domain errors to HTTP codes
func status(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, raster.ErrRect),
		errors.Is(err, raster.ErrTooLarge),
		errors.Is(err, correlation.ErrRegion),
		errors.Is(err, correlation.ErrChannels),
		errors.Is(err, genetic.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "searches": s.opts.Registry.Len()})
}

// create starts a search from a multipart upload
func (s *Server) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	opts, err := s.parseCreate(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	search, err := s.opts.Registry.Create(opts)
	if err != nil {
		s.fail(c, err)
		return
	}

	stats := search.Stats()
	s.opts.Recorder.Observe(search.ID(), stats, 0, stats.Evaluations)
	s.logger.Info("search created",
		"search", search.ID(),
		"image", opts.Name,
		"region", raster.FormatRect(opts.Region),
		"population", opts.Population,
		"seed", opts.Seed)

	c.JSON(http.StatusCreated, newDetail(search))
}

func (s *Server) parseCreate(c *gin.Context) (session.Options, error) {
	d := s.opts.Defaults
	opts := session.Options{
		Population: d.Population,
		Crossover:  d.Crossover,
		Mutation:   d.Mutation,
		Mode:       d.Mode(),
		Scale:      1,
	}

	header, err := c.FormFile("image")
	if err != nil {
		return opts, errors.Wrap(errBadRequest, "image: "+err.Error())
	}
	f, err := header.Open()
	if err != nil {
		return opts, errors.Wrap(errBadRequest, "image: "+err.Error())
	}
	defer f.Close()

	img, err := raster.DecodeLimited(f, s.opts.MaxPixels)
	if errors.Is(err, raster.ErrTooLarge) {
		return opts, err
	}
	if err != nil {
		return opts, errors.Wrap(errBadRequest, err.Error())
	}
	opts.Name = header.Filename

	region, err := raster.ParseRect(c.PostForm("region"))
	if err != nil {
		return opts, err
	}

	if v, ok := c.GetPostForm("population"); ok {
		if opts.Population, err = strconv.Atoi(v); err != nil {
			return opts, errors.Wrapf(errBadRequest, "population %q", v)
		}
	}
	if opts.Population > s.opts.MaxPopulation {
		return opts, errors.Wrapf(errBadRequest, "population must be at most %d", s.opts.MaxPopulation)
	}
	if v, ok := c.GetPostForm("crossover"); ok {
		if opts.Crossover, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.Wrapf(errBadRequest, "crossover %q", v)
		}
	}
	if v, ok := c.GetPostForm("mutation"); ok {
		if opts.Mutation, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.Wrapf(errBadRequest, "mutation %q", v)
		}
	}
	if v, ok := c.GetPostForm("gray"); ok {
		gray, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.Wrapf(errBadRequest, "gray %q", v)
		}
		opts.Mode = correlation.ModeRGB
		if gray {
			opts.Mode = correlation.ModeGray
		}
	}
	if v, ok := c.GetPostForm("scale"); ok {
		if opts.Scale, err = strconv.Atoi(v); err != nil || opts.Scale < 1 {
			return opts, errors.Wrapf(errBadRequest, "scale %q", v)
		}
	}

	// Seeds stay within int64 so reports can store them
	opts.Seed = rand.Uint64() >> 1
	if v, ok := c.GetPostForm("seed"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || seed < 0 {
			return opts, errors.Wrapf(errBadRequest, "seed %q", v)
		}
		opts.Seed = uint64(seed)
	}

	opts.Image = raster.Downscale(img, opts.Scale)
	opts.Region = raster.ScaleRect(region, opts.Scale)
	return opts, nil
}

func (s *Server) list(c *gin.Context) {
	searches := s.opts.Registry.List()
	out := make([]summary, 0, len(searches))
	for _, search := range searches {
		out = append(out, newSummary(search))
	}
	c.JSON(http.StatusOK, gin.H{"searches": out})
}

func (s *Server) get(c *gin.Context) {
	search, err := s.opts.Registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newDetail(search))
}

func (s *Server) remove(c *gin.Context) {
	id := c.Param("id")
	if err := s.opts.Registry.Remove(id); err != nil {
		s.fail(c, err)
		return
	}
	s.opts.Recorder.Forget(id)
	s.logger.Info("search removed", "search", id)
	c.Status(http.StatusNoContent)
}

// advance runs ?generations=N (default 1) generations
// A second advance on the same search while one is running is rejected with 409
func (s *Server) advance(c *gin.Context) {
	id := c.Param("id")
	search, err := s.opts.Registry.Get(id)
	if err != nil {
		s.fail(c, err)
		return
	}

	n, err := strconv.Atoi(c.DefaultQuery("generations", "1"))
	if err != nil || n < 1 || n > s.opts.MaxAdvance {
		s.fail(c, errors.Wrapf(errBadRequest, "generations must be in [1,%d]", s.opts.MaxAdvance))
		return
	}

	if _, running := s.busy.LoadOrStore(id, struct{}{}); running {
		s.fail(c, errors.Wrap(errBusy, id))
		return
	}
	defer s.busy.Delete(id)

	last := search.Stats().Evaluations
	err = search.Advance(c.Request.Context(), n, func(stats genetic.Stats, improved bool) {
		s.opts.Recorder.Observe(id, stats, 1, stats.Evaluations-last)
		last = stats.Evaluations
		if improved {
			s.logger.Debug("best improved", "search", id, "generation", stats.Generation, "fitness", stats.Best.Fitness)
		}
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, newDetail(search))
}

func (s *Server) population(c *gin.Context) {
	search, err := s.opts.Registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	pop := search.Population()
	genes := make([]gene, len(pop))
	for i, g := range pop {
		genes[i] = newGene(g)
	}
	c.JSON(http.StatusOK, gin.H{"id": search.ID(), "genes": genes})
}
