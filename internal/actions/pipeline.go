package actions

import (
	"context"
	"fmt"
	"sort"
)

// GetPipelines fetches the location's pipelines with their stages.
func (s *Service) GetPipelines(ctx context.Context) ([]Pipeline, error) {
	var payload pipelinesPayload
	if err := s.callInto(ctx, ToolGetPipelines, map[string]interface{}{}, &payload); err != nil {
		return nil, err
	}
	return payload.Pipelines, nil
}

// SearchOpportunities fetches up to limit opportunities, optionally
// filtered to one pipeline.
func (s *Service) SearchOpportunities(ctx context.Context, pipelineID string, limit int) ([]Opportunity, error) {
	args := map[string]interface{}{}
	if pipelineID != "" {
		args["pipelineId"] = pipelineID
	}
	if limit > 0 {
		args["limit"] = limit
	}
	var payload opportunitiesPayload
	if err := s.callInto(ctx, ToolSearchOpportunity, args, &payload); err != nil {
		return nil, err
	}
	return payload.Opportunities, nil
}

// PipelineOverview aggregates one pipeline's opportunities by stage:
// per-stage count and summed monetary value, missing values counted as
// zero. When pipelineID matches nothing the first pipeline is used; with
// no pipelines at all the overview is an error.
func (s *Service) PipelineOverview(ctx context.Context, pipelineID string) (*PipelineOverview, error) {
	pipelines, err := s.GetPipelines(ctx)
	if err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return nil, fmt.Errorf("location has no pipelines")
	}

	pipeline := pipelines[0]
	for _, p := range pipelines {
		if p.ID == pipelineID {
			pipeline = p
			break
		}
	}

	opportunities, err := s.SearchOpportunities(ctx, pipeline.ID, 0)
	if err != nil {
		return nil, err
	}

	byStage := make(map[string]*StageSummary)
	for _, opp := range opportunities {
		summary, ok := byStage[opp.PipelineStageID]
		if !ok {
			summary = &StageSummary{
				StageID:   opp.PipelineStageID,
				StageName: pipeline.StageName(opp.PipelineStageID),
			}
			byStage[opp.PipelineStageID] = summary
		}
		summary.Count++
		summary.TotalValue += opp.Value()
	}

	overview := &PipelineOverview{
		PipelineID:   pipeline.ID,
		PipelineName: pipeline.Name,
		Total:        len(opportunities),
	}
	for _, summary := range byStage {
		overview.Stages = append(overview.Stages, *summary)
	}
	sort.Slice(overview.Stages, func(i, j int) bool {
		return overview.Stages[i].StageID < overview.Stages[j].StageID
	})
	return overview, nil
}
