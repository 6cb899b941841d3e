// internal/workers/matching/parse-match-criteria/handler.go
package parsematchcriteria

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "parse-match-criteria"
)

var nonDigits = regexp.MustCompile(`[^\d]+`)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, h.mapErrorToCode(err), err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

// execute coerces a loosely typed filter map into validated criteria. Client
// payloads arrive with comma-joined lists and formatted currency strings, so
// every field is normalized before the strict validation pass.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	raw := input.RawCriteria
	if raw == nil {
		raw = map[string]interface{}{}
	}

	var criteria models.Criteria

	if v, ok := raw["industries"]; ok {
		criteria.Industries = parseStringList(v)
	}
	if v, ok := raw["businessTypes"]; ok {
		criteria.BusinessTypes = parseStringList(v)
	}

	if v, ok := raw["marketSizes"]; ok {
		for _, s := range parseStringList(v) {
			size := models.ParseMarketSize(s)
			if size == "" {
				return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("unknown market size %q", s))
			}
			criteria.MarketSizes = append(criteria.MarketSizes, size)
		}
	}

	if v, ok := raw["timelines"]; ok {
		for _, s := range parseStringList(v) {
			bucket := models.ParseTimelineBucket(s)
			if bucket == "" {
				return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("unknown timeline %q", s))
			}
			criteria.Timelines = append(criteria.Timelines, bucket)
		}
	}

	min, max, err := parseInvestmentBounds(raw)
	if err != nil {
		return nil, err
	}
	criteria.InvestmentMin = min
	criteria.InvestmentMax = max

	if v, ok := raw["minYearsExperience"]; ok {
		years, err := parseAmount(v)
		if err != nil {
			return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("minYearsExperience: %v", err))
		}
		criteria.MinYearsExperience = int(years)
	}
	if v, ok := raw["maxYearsExperience"]; ok {
		years, err := parseAmount(v)
		if err != nil {
			return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("maxYearsExperience: %v", err))
		}
		criteria.MaxYearsExperience = int(years)
	}

	if v, ok := raw["verificationFloor"].(string); ok && strings.TrimSpace(v) != "" {
		normalized := strings.ToLower(strings.TrimSpace(v))
		level := models.ParseVerificationLevel(normalized)
		if level == models.VerificationNone && normalized != string(models.VerificationNone) {
			return nil, errors.NewInvalidFilterFormatError(fmt.Sprintf("unknown verification floor %q", v))
		}
		criteria.VerificationFloor = level
	}

	if v, ok := raw["verifiedOnly"].(bool); ok {
		criteria.VerifiedOnly = v
	}

	if v, ok := raw["keywords"].(string); ok {
		criteria.Keywords = strings.TrimSpace(v)
	}

	if err := criteria.Validate(); err != nil {
		return nil, errors.NewInvalidFilterFormatError(err.Error())
	}

	h.logger.Info("criteria parsed", map[string]interface{}{
		"industries":    criteria.Industries,
		"investmentMin": criteria.InvestmentMin,
		"investmentMax": criteria.InvestmentMax,
		"verifiedOnly":  criteria.VerifiedOnly,
	})

	return &Output{Criteria: criteria}, nil
}

// parseInvestmentBounds reads flat investmentMin/investmentMax keys, falling
// back to a nested investmentRange object for older client payloads.
func parseInvestmentBounds(raw map[string]interface{}) (int64, int64, error) {
	var min, max int64

	readBound := func(v interface{}, field string) (int64, error) {
		amount, err := parseAmount(v)
		if err != nil {
			return 0, errors.NewInvalidFilterFormatError(fmt.Sprintf("%s: %v", field, err))
		}
		return amount, nil
	}

	minRaw, hasMin := raw["investmentMin"]
	maxRaw, hasMax := raw["investmentMax"]

	if !hasMin && !hasMax {
		if nested, ok := raw["investmentRange"].(map[string]interface{}); ok {
			minRaw, hasMin = nested["min"]
			maxRaw, hasMax = nested["max"]
		}
	}

	if hasMin {
		v, err := readBound(minRaw, "investmentMin")
		if err != nil {
			return 0, 0, err
		}
		min = v
	}
	if hasMax {
		v, err := readBound(maxRaw, "investmentMax")
		if err != nil {
			return 0, 0, err
		}
		max = v
	}

	return min, max, nil
}

// parseStringList accepts a comma-joined string, a JSON array, or a native
// string slice. Entries are trimmed and deduplicated, order preserved.
func parseStringList(raw interface{}) []string {
	result := []string{}
	if raw == nil {
		return result
	}

	seen := make(map[string]bool)
	add := func(s string) {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" && !seen[trimmed] {
			result = append(result, trimmed)
			seen[trimmed] = true
		}
	}

	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			add(part)
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	}

	return result
}

// parseAmount coerces a numeric field that clients send as a number or a
// formatted currency string ("$500,000.00" becomes 500000).
func parseAmount(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return 0, fmt.Errorf("not a valid non-negative integer")
		}
		return int64(v), nil

	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value not allowed")
		}
		return int64(v), nil

	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value not allowed")
		}
		return v, nil

	case string:
		cleaned := strings.ReplaceAll(v, " ", "")
		cleaned = strings.ReplaceAll(cleaned, "$", "")
		cleaned = strings.ReplaceAll(cleaned, "USD", "")
		cleaned = strings.ReplaceAll(cleaned, ",", "")

		// Truncate at the decimal point so "50,000.00" reads as 50000.
		if idx := strings.Index(cleaned, "."); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = nonDigits.ReplaceAllString(cleaned, "")
		if cleaned == "" {
			return 0, fmt.Errorf("not a number")
		}

		num, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %v", err)
		}
		return num, nil

	default:
		return 0, fmt.Errorf("not a number")
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) mapErrorToCode(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return "UNKNOWN_ERROR"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
