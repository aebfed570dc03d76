package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/opsguard/opsguard-seeder/internal/utils"
)

// IndexSpec pairs a target index with its mapping file. An empty
// MappingFile creates the index without a body.
type IndexSpec struct {
	Name        string
	MappingFile string
}

// DefaultIndexPlan lists every index the pipeline owns.
func DefaultIndexPlan() []IndexSpec {
	return []IndexSpec{
		{Name: "opsguard-incidents", MappingFile: "logs-incidents.json"},
		{Name: "opsguard-metrics", MappingFile: "metrics-system.json"},
		{Name: "opsguard-business", MappingFile: "business-metrics.json"},
		{Name: "opsguard-history", MappingFile: "incidents-history.json"},
		{Name: "opsguard-active"},
		{Name: "opsguard-notifications"},
		{Name: "opsguard-audit"},
	}
}

// SelectIndices keeps the entries of plan named in names, in plan order.
// No names keeps the whole plan; an unknown name is an error.
func SelectIndices(plan []IndexSpec, names []string) ([]IndexSpec, error) {
	if len(names) == 0 {
		return plan, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	selected := make([]IndexSpec, 0, len(names))
	for _, spec := range plan {
		if wanted[spec.Name] {
			selected = append(selected, spec)
			delete(wanted, spec.Name)
		}
	}
	for _, name := range names {
		if wanted[name] {
			return nil, utils.NewAppError("provision", "unknown index "+name, nil)
		}
	}
	return selected, nil
}

// IndexResult is the outcome of provisioning one index.
type IndexResult struct {
	Index   string
	Deleted bool
	Created bool
	Err     error
}

// Provisioner recreates indices from mapping files.
type Provisioner struct {
	backend     Backend
	mappingsDir string
	plan        []IndexSpec
	logger      *slog.Logger
}

// NewProvisioner builds a Provisioner over the default index plan.
func NewProvisioner(backend Backend, mappingsDir string, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		backend:     backend,
		mappingsDir: mappingsDir,
		plan:        DefaultIndexPlan(),
		logger:      logger,
	}
}

// WithPlan replaces the index plan.
func (p *Provisioner) WithPlan(plan []IndexSpec) *Provisioner {
	p.plan = plan
	return p
}

// Run deletes and recreates every index in the plan. Failures are
// collected per index and returned together; one failing index never
// stops the others.
func (p *Provisioner) Run(ctx context.Context) ([]IndexResult, error) {
	results := make([]IndexResult, 0, len(p.plan))
	var errs *multierror.Error

	for _, spec := range p.plan {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		res := p.provision(ctx, spec)
		if res.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", spec.Name, res.Err))
			p.logger.Error("index provisioning failed", slog.String("index", spec.Name), slog.Any("error", res.Err))
		} else {
			p.logger.Info("index ready", slog.String("index", spec.Name))
		}
		results = append(results, res)
	}
	return results, errs.ErrorOrNil()
}

func (p *Provisioner) provision(ctx context.Context, spec IndexSpec) IndexResult {
	res := IndexResult{Index: spec.Name}

	if err := p.backend.DeleteIndex(ctx, spec.Name); err != nil {
		p.logger.Warn("index delete failed, creating anyway", slog.String("index", spec.Name), slog.Any("error", err))
	} else {
		res.Deleted = true
	}

	var body []byte
	if spec.MappingFile != "" {
		raw, err := os.ReadFile(filepath.Join(p.mappingsDir, spec.MappingFile))
		if err != nil {
			res.Err = fmt.Errorf("read mapping: %w", err)
			return res
		}
		body, err = StripSettings(raw)
		if err != nil {
			res.Err = fmt.Errorf("mapping %s: %w", spec.MappingFile, err)
			return res
		}
	}

	if err := p.backend.CreateIndex(ctx, spec.Name, body); err != nil {
		res.Err = err
		return res
	}
	res.Created = true
	return res
}

// StripSettings removes the top-level "settings" object from a mapping
// document. Serverless tiers reject shard and replica settings.
func StripSettings(raw []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if _, ok := doc["settings"]; !ok {
		return raw, nil
	}
	delete(doc, "settings")
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}
	return out, nil
}
