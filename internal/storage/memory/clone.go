package memory

import "github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"

// Records never share maps or pointers with callers.

func cloneProject(p domain.Project) domain.Project {
	p.CurrentStageData = p.CurrentStageData.Clone()
	return p
}

func cloneApproval(a domain.StageApproval) domain.StageApproval {
	a.ApprovedBy = cloneString(a.ApprovedBy)
	a.Comments = cloneString(a.Comments)
	a.Requirements = a.Requirements.Clone()
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		a.ApprovedAt = &t
	}
	return a
}

func cloneReview(r domain.Review) domain.Review {
	r.Comments = cloneString(r.Comments)
	r.ReviewedBy = cloneString(r.ReviewedBy)
	return r
}

func cloneTemplate(t domain.Template) domain.Template {
	t.Content = t.Content.Clone()
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
