package config

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/eddic/gr-gs/internal/gf"
	"github.com/eddic/gr-gs/internal/gs"
	"github.com/eddic/gr-gs/internal/spinbox"
)

var ErrBadValue = errors.New("config: bad value")

// Config represents the guided scrambling tool configuration
type Config struct {
	filename string
	errs     []error

	// Scrambler section
	fieldSizeText    string
	fieldBase        int
	codewordLength   int
	augmentingLength int
	continuous       bool
	multiplier       []gf.Symbol
	augmentingWords  [][]gf.Symbol
	workers          int

	// Analyzer section
	method        string
	historyLength int
	constellation string

	// Distribution section
	distBins          int
	distBinSize       float64
	distLeftBinCenter float64
	distDecimation    int
	snapshotInterval  int

	// SideChannel section
	sideDataShards   int
	sideParityShards int

	// Database section
	databaseEnabled bool
	databasePath    string
	databaseDebug   bool

	// Metrics section
	metricsEnabled bool
	metricsAddress string

	// Log section
	logDebug bool
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,

		fieldSizeText:    "2",
		codewordLength:   12,
		augmentingLength: 3,
		continuous:       true,
		multiplier:       []gf.Symbol{1, 0, 0, 1, 1},
		workers:          1,

		method:        "msw",
		historyLength: 1024,
		constellation: "default",

		distBins:          65,
		distBinSize:       1,
		distLeftBinCenter: -32,
		distDecimation:    1024,
		snapshotInterval:  65536,

		sideDataShards:   10,
		sideParityShards: 4,

		databasePath: "data/gs_runs.db",

		metricsAddress: ":9464",
	}
}

// Load loads configuration from the specified file
func (c *Config) Load() error {
	file, err := os.Open(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %v", c.filename, err)
	}
	defer file.Close()

	return c.parseINIScanner(bufio.NewScanner(file))
}

// LoadFromString loads configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	return c.parseINIScanner(bufio.NewScanner(strings.NewReader(data)))
}

func (c *Config) parseINIScanner(scanner *bufio.Scanner) error {
	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch currentSection {
		case "Scrambler":
			c.parseScramblerSection(key, value)
		case "Analyzer":
			c.parseAnalyzerSection(key, value)
		case "Distribution":
			c.parseDistributionSection(key, value)
		case "SideChannel":
			c.parseSideChannelSection(key, value)
		case "Database":
			c.parseDatabaseSection(key, value)
		case "Metrics":
			c.parseMetricsSection(key, value)
		case "Log":
			c.parseLogSection(key, value)
		}
	}

	return scanner.Err()
}

func (c *Config) parseScramblerSection(key, value string) {
	switch key {
	case "FieldSize":
		c.fieldSizeText = value
	case "FieldBase":
		c.parseInt(key, value, &c.fieldBase)
	case "CodewordLength":
		c.parseInt(key, value, &c.codewordLength)
	case "AugmentingLength":
		c.parseInt(key, value, &c.augmentingLength)
	case "Continuous":
		c.continuous = c.parseBool(value)
	case "Multiplier":
		if v, err := parseSymbols(value); err == nil {
			c.multiplier = v
		} else {
			c.fail(key, value, err)
		}
	case "AugmentingWords":
		c.augmentingWords = nil
		if value == "" {
			return
		}
		for _, word := range strings.Split(value, ";") {
			v, err := parseSymbols(word)
			if err != nil {
				c.fail(key, value, err)
				return
			}
			c.augmentingWords = append(c.augmentingWords, v)
		}
	case "Workers":
		c.parseInt(key, value, &c.workers)
	}
}

func (c *Config) parseAnalyzerSection(key, value string) {
	switch key {
	case "Method":
		c.method = strings.ToLower(value)
	case "HistoryLength":
		c.parseInt(key, value, &c.historyLength)
	case "Constellation":
		c.constellation = strings.ToLower(value)
	}
}

func (c *Config) parseDistributionSection(key, value string) {
	switch key {
	case "Bins":
		c.parseInt(key, value, &c.distBins)
	case "BinSize":
		c.parseFloat(key, value, &c.distBinSize)
	case "LeftBinCenter":
		c.parseFloat(key, value, &c.distLeftBinCenter)
	case "Decimation":
		c.parseInt(key, value, &c.distDecimation)
	case "SnapshotInterval":
		c.parseInt(key, value, &c.snapshotInterval)
	}
}

func (c *Config) parseSideChannelSection(key, value string) {
	switch key {
	case "DataShards":
		c.parseInt(key, value, &c.sideDataShards)
	case "ParityShards":
		c.parseInt(key, value, &c.sideParityShards)
	}
}

func (c *Config) parseDatabaseSection(key, value string) {
	switch key {
	case "Enabled":
		c.databaseEnabled = c.parseBool(value)
	case "Path":
		c.databasePath = value
	case "Debug":
		c.databaseDebug = c.parseBool(value)
	}
}

func (c *Config) parseMetricsSection(key, value string) {
	switch key {
	case "Enabled":
		c.metricsEnabled = c.parseBool(value)
	case "Address":
		c.metricsAddress = value
	}
}

func (c *Config) parseLogSection(key, value string) {
	switch key {
	case "Debug":
		c.logDebug = c.parseBool(value)
	}
}

func (c *Config) parseBool(value string) bool {
	return value == "1" || strings.ToLower(value) == "true" || strings.ToLower(value) == "yes"
}

func (c *Config) parseInt(key, value string, dst *int) {
	v, err := strconv.Atoi(value)
	if err != nil {
		c.fail(key, value, err)
		return
	}
	*dst = v
}

func (c *Config) parseFloat(key, value string, dst *float64) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		c.fail(key, value, err)
		return
	}
	*dst = v
}

func (c *Config) fail(key, value string, err error) {
	c.errs = append(c.errs, fmt.Errorf("%w: %s=%q: %v", ErrBadValue, key, value, err))
}

// parseSymbols parses a comma separated symbol list
func parseSymbols(value string) ([]gf.Symbol, error) {
	parts := strings.Split(value, ",")
	result := make([]gf.Symbol, 0, len(parts))

	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if err != nil {
			return nil, err
		}
		result = append(result, gf.Symbol(v))
	}

	return result, nil
}

// FieldSize resolves the configured field size. With FieldBase set the
// FieldSize text must be an exact power of the base, as an exponential spin
// box would accept it.
func (c *Config) FieldSize() (int, error) {
	if c.fieldBase == 0 {
		v, err := strconv.Atoi(c.fieldSizeText)
		if err != nil {
			return 0, fmt.Errorf("%w: FieldSize=%q: %v", ErrBadValue, c.fieldSizeText, err)
		}
		return v, nil
	}

	maxExp := int(math.Floor(math.Log(gf.MaxFieldSize)/math.Log(float64(c.fieldBase)) + 1e-9))
	box, err := spinbox.New(c.fieldBase, 1, maxExp)
	if err != nil {
		return 0, fmt.Errorf("%w: FieldBase=%d: %v", ErrBadValue, c.fieldBase, err)
	}
	exp, err := box.ExactValueFromText(c.fieldSizeText)
	if err != nil {
		return 0, fmt.Errorf("%w: FieldSize=%q: %v", ErrBadValue, c.fieldSizeText, err)
	}
	box.SetValue(exp)
	return strconv.Atoi(box.Text())
}

// Constellation returns the configured signal constellation for q symbols
func (c *Config) Constellation(q int) (gs.Constellation, error) {
	switch c.constellation {
	case "", "default", "pam":
		return gs.DefaultConstellation(q), nil
	case "psk":
		return gs.PSKConstellation(q), nil
	default:
		return nil, fmt.Errorf("%w: constellation %q", gs.ErrBadSelectionMethod, c.constellation)
	}
}

// GSConfig assembles the scrambler configuration
func (c *Config) GSConfig() (gs.Config, error) {
	if len(c.errs) > 0 {
		return gs.Config{}, errors.Join(c.errs...)
	}

	q, err := c.FieldSize()
	if err != nil {
		return gs.Config{}, err
	}
	constellation, err := c.Constellation(q)
	if err != nil {
		return gs.Config{}, err
	}

	return gs.Config{
		FieldSize:        q,
		CodewordLength:   c.codewordLength,
		AugmentingLength: c.augmentingLength,
		Continuous:       c.continuous,
		Multiplier:       c.multiplier,
		AugmentingWords:  c.augmentingWords,
		SelectionMethod:  c.method,
		Constellation:    constellation,
		HistoryLength:    c.historyLength,
		Workers:          c.workers,
	}, nil
}

// Validate checks every value the tools depend on
func (c *Config) Validate() error {
	config, err := c.GSConfig()
	if err != nil {
		return err
	}
	if _, _, err := config.Build(); err != nil {
		return err
	}
	if _, err := gs.MetricByName(config.SelectionMethod); err != nil {
		return err
	}
	if c.historyLength < 0 {
		return fmt.Errorf("%w: HistoryLength=%d", ErrBadValue, c.historyLength)
	}
	if c.distBins < 1 || !(c.distBinSize > 0) || c.distDecimation < 1 {
		return fmt.Errorf("%w: distribution bins=%d size=%g decimation=%d", ErrBadValue, c.distBins, c.distBinSize, c.distDecimation)
	}
	if c.sideDataShards < 1 || c.sideParityShards < 0 || c.sideDataShards+c.sideParityShards > 256 {
		return fmt.Errorf("%w: side channel shards %d+%d", ErrBadValue, c.sideDataShards, c.sideParityShards)
	}
	return nil
}

// Getter methods for Scrambler section
func (c *Config) GetFieldBase() int          { return c.fieldBase }
func (c *Config) GetCodewordLength() int     { return c.codewordLength }
func (c *Config) GetAugmentingLength() int   { return c.augmentingLength }
func (c *Config) GetContinuous() bool        { return c.continuous }
func (c *Config) GetMultiplier() []gf.Symbol { return c.multiplier }
func (c *Config) GetWorkers() int            { return c.workers }
func (c *Config) GetAugmentingWords() [][]gf.Symbol {
	return c.augmentingWords
}

// Getter methods for Analyzer section
func (c *Config) GetMethod() string        { return c.method }
func (c *Config) GetHistoryLength() int    { return c.historyLength }
func (c *Config) GetConstellation() string { return c.constellation }

// Getter methods for Distribution section
func (c *Config) GetDistributionBins() int              { return c.distBins }
func (c *Config) GetDistributionBinSize() float64       { return c.distBinSize }
func (c *Config) GetDistributionLeftBinCenter() float64 { return c.distLeftBinCenter }
func (c *Config) GetDistributionDecimation() int        { return c.distDecimation }
func (c *Config) GetSnapshotInterval() int              { return c.snapshotInterval }

// Getter methods for SideChannel section
func (c *Config) GetSideDataShards() int   { return c.sideDataShards }
func (c *Config) GetSideParityShards() int { return c.sideParityShards }

// Getter methods for Database section
func (c *Config) GetDatabaseEnabled() bool { return c.databaseEnabled }
func (c *Config) GetDatabasePath() string  { return c.databasePath }
func (c *Config) GetDatabaseDebug() bool   { return c.databaseDebug }

// Getter methods for Metrics section
func (c *Config) GetMetricsEnabled() bool   { return c.metricsEnabled }
func (c *Config) GetMetricsAddress() string { return c.metricsAddress }

// Getter methods for Log section
func (c *Config) GetLogDebug() bool { return c.logDebug }
