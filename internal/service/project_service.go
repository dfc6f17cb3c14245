package service

import (
	"context"

	"github.com/straye-as/minicrm/internal/domain"
	"go.uber.org/zap"
)

// AddProjectToCustomer appends a project. Status defaults to open and the
// title to "New project".
func (s *RecordStore) AddProjectToCustomer(ctx context.Context, customerID string, req *domain.CreateProjectRequest) (*domain.Project, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("add_project", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var project domain.Project
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		project = s.newProject(req)
		c.Projects = append(c.Projects, project)
		s.appendHistory(c, domain.HistoryTypeMilestone, "Project created: "+project.Title)
		return nil
	})
	s.observer.Observe("add_project", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("customer_id", customerID),
		zap.String("project_id", project.ID),
	)
	return &project, nil
}

func (s *RecordStore) newProject(req *domain.CreateProjectRequest) domain.Project {
	p := domain.Project{
		ID:         s.ids.NewID(domain.PrefixProject),
		Title:      req.Title,
		OfferID:    req.OfferID,
		Status:     req.Status,
		CreatedAt:  s.now().UTC(),
		Milestones: req.Milestones,
		Notes:      req.Notes,
		Files:      req.Files,
	}
	if p.Title == "" {
		p.Title = "New project"
	}
	if p.Status == "" {
		p.Status = domain.ProjectStatusOpen
	}
	if p.Milestones == nil {
		p.Milestones = []domain.Milestone{}
	}
	if p.Files == nil {
		p.Files = []domain.ProjectFile{}
	}
	return p
}

// AddProjectFromOffer creates a project for an existing offer, seeded with
// Kickoff (due today), Milestone 1 and Acceptance.
func (s *RecordStore) AddProjectFromOffer(ctx context.Context, customerID, offerID string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var project domain.Project
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		off := findOffer(c, offerID)
		if off == nil {
			return ErrOfferNotFound
		}
		title := "Project for offer " + off.ID
		if off.Paket != "" {
			title = off.Paket + " project"
		}
		id := off.ID
		project = s.newProject(&domain.CreateProjectRequest{
			Title:   title,
			OfferID: &id,
			Milestones: []domain.Milestone{
				{ID: s.ids.NewID(domain.PrefixMilestone), Title: "Kickoff", Due: s.today()},
				{ID: s.ids.NewID(domain.PrefixMilestone), Title: "Milestone 1"},
				{ID: s.ids.NewID(domain.PrefixMilestone), Title: "Acceptance"},
			},
		})
		c.Projects = append(c.Projects, project)
		s.appendHistory(c, domain.HistoryTypeMilestone, "Project created: "+project.Title)
		return nil
	})
	s.observer.Observe("add_project_from_offer", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("project created from offer",
		zap.String("customer_id", customerID),
		zap.String("offer_id", offerID),
		zap.String("project_id", project.ID),
	)
	return &project, nil
}

// UpdateProject overwrites the given fields of a project
func (s *RecordStore) UpdateProject(ctx context.Context, customerID, projectID string, req *domain.UpdateProjectRequest) (*domain.Project, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("update_project", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.Project
	c, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		p := findProject(c, projectID)
		if p == nil {
			return ErrProjectNotFound
		}
		if req.Title != nil {
			p.Title = *req.Title
		}
		if req.OfferID != nil {
			p.OfferID = req.OfferID
		}
		if req.Status != nil {
			p.Status = *req.Status
		}
		if req.Notes != nil {
			p.Notes = *req.Notes
		}
		if req.Milestones != nil {
			p.Milestones = *req.Milestones
		}
		if req.Files != nil {
			p.Files = *req.Files
		}
		return nil
	})
	s.observer.Observe("update_project", err)
	if err != nil {
		return nil, err
	}
	updated = *findProject(c, projectID)

	s.logger.Info("project updated",
		zap.String("customer_id", customerID),
		zap.String("project_id", projectID),
	)
	return &updated, nil
}

// AddProjectMilestone appends an open milestone to a project
func (s *RecordStore) AddProjectMilestone(ctx context.Context, customerID, projectID string, req *domain.CreateMilestoneRequest) (*domain.Milestone, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("add_milestone", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := domain.Milestone{
		ID:    s.ids.NewID(domain.PrefixMilestone),
		Title: req.Title,
		Due:   req.Due,
	}
	if m.Title == "" {
		m.Title = "Milestone"
	}
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		p := findProject(c, projectID)
		if p == nil {
			return ErrProjectNotFound
		}
		p.Milestones = append(p.Milestones, m)
		s.appendHistory(c, domain.HistoryTypeNote, "Milestone added: "+m.Title)
		return nil
	})
	s.observer.Observe("add_milestone", err)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ToggleMilestoneDone sets the done flag of a milestone
func (s *RecordStore) ToggleMilestoneDone(ctx context.Context, customerID, projectID, milestoneID string, done bool) (*domain.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.Milestone
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		p := findProject(c, projectID)
		if p == nil {
			return ErrProjectNotFound
		}
		var m *domain.Milestone
		for i := range p.Milestones {
			if p.Milestones[i].ID == milestoneID {
				m = &p.Milestones[i]
				break
			}
		}
		if m == nil {
			return ErrMilestoneNotFound
		}
		m.Done = done
		state := "reopened"
		if done {
			state = "checked off"
		}
		s.appendHistory(c, domain.HistoryTypeMilestone, "Milestone "+m.Title+" "+state)
		updated = *m
		return nil
	})
	s.observer.Observe("toggle_milestone", err)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddProjectFile records metadata of an externally hosted file
func (s *RecordStore) AddProjectFile(ctx context.Context, customerID, projectID string, req *domain.CreateProjectFileRequest) (*domain.ProjectFile, error) {
	if err := s.validateRequest(req); err != nil {
		s.observer.Observe("add_project_file", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := domain.ProjectFile{
		ID:      s.ids.NewID(domain.PrefixFile),
		Name:    req.Name,
		URL:     req.URL,
		Size:    req.Size,
		Kind:    req.Kind,
		AddedAt: s.now().UTC(),
	}
	if f.Name == "" {
		f.Name = "File"
	}
	if f.Kind == "" {
		f.Kind = "link"
	}
	_, err := s.mutateCustomer(ctx, customerID, func(c *domain.Customer) error {
		p := findProject(c, projectID)
		if p == nil {
			return ErrProjectNotFound
		}
		p.Files = append(p.Files, f)
		s.appendHistory(c, domain.HistoryTypeNote, "File added to project: "+f.Name)
		return nil
	})
	s.observer.Observe("add_project_file", err)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func findProject(c *domain.Customer, projectID string) *domain.Project {
	for i := range c.Projects {
		if c.Projects[i].ID == projectID {
			return &c.Projects[i]
		}
	}
	return nil
}
