package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/metrics"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/notification"
)

const (
	channelMember   = "member"
	channelJobMitra = "jobmitra"
)

// ApplicationService owns job applications and their status.
type ApplicationService struct {
	DB          *database.DBinstanceStruct
	jobs        *JobService
	resolver    identity.Resolver
	notifier    notification.Notifier
	transitions TransitionPolicy
	concurrency int
	now         func() time.Time
}

// SubmitInput is a member's own application.
type SubmitInput struct {
	JobID       uint
	MemberCard  string
	Resume      string
	CoverLetter *string
	InstituteID *string
}

// ProxyInput is an application submitted by a field agent for a member.
type ProxyInput struct {
	JobID       uint
	MemberCard  string
	Resume      string
	CoverLetter *string
	AgentID     string
}

// ApplicationView is an application enriched for display.
type ApplicationView struct {
	ID              uint      `json:"id"`
	JobID           uint      `json:"job_id"`
	JobTitle        string    `json:"job_title"`
	CompanyName     string    `json:"company_name"`
	MemberCard      string    `json:"member_card"`
	FullName        *string   `json:"full_name"`
	Email           *string   `json:"email"`
	InstituteID     *string   `json:"institute_id"`
	Resume          string    `json:"resume"`
	ResumeName      string    `json:"resume_name"`
	CoverLetter     *string   `json:"cover_letter"`
	Status          string    `json:"status"`
	AppliedAt       time.Time `json:"applied_at"`
	Referral        *string   `json:"referral"`
	JobMitraComment *string   `json:"jobmitra_comment"`
}

// MemberApplications is a member's own application history.
type MemberApplications struct {
	HasResume    bool              `json:"has_resume"`
	Applications []ApplicationView `json:"applications"`
}

// JobListFilter scopes ListForJob.
type JobListFilter struct {
	// OwnerID restricts the listing to a job owned by this business
	OwnerID     string
	InstituteID string
	MemberCard  string
}

// InstituteApplications is the institute view, with the job when filtered by one.
type InstituteApplications struct {
	Job          *model.Job        `json:"job_details,omitempty"`
	Applications []ApplicationView `json:"applications"`
}

// TransitionInput moves an application to a new status.
type TransitionInput struct {
	ApplicationID uint
	JobID         uint
	Status        string
	// OwnerID, when set, requires the job to belong to this business
	OwnerID string
	// InstituteID, when set, requires the application to come from this institute
	InstituteID string
}

type submission struct {
	jobID         uint
	card          string
	resume        string
	coverLetter   *string
	instituteID   *string
	referral      *string
	requireResume bool
	channel       string
}

// Submit creates a member's application. A resume already on file always
// wins over the submitted one; otherwise the submitted resume becomes the
// member's resume on file.
func (s *ApplicationService) Submit(ctx context.Context, in SubmitInput) (*model.JobApplication, error) {
	card, err := model.ParseCardNumber(in.MemberCard)
	if err != nil {
		return nil, apperror.Field("member_card", err.Error())
	}
	return s.submit(ctx, submission{
		jobID:       in.JobID,
		card:        card,
		resume:      in.Resume,
		coverLetter: in.CoverLetter,
		instituteID: emptyToNil(in.InstituteID),
		channel:     channelMember,
	})
}

// SubmitForMember creates an application on behalf of a member. The member
// must exist in the directory and must have a resume on file or supplied.
func (s *ApplicationService) SubmitForMember(ctx context.Context, in ProxyInput) (*model.JobApplication, error) {
	card, err := model.ParseCardNumber(in.MemberCard)
	if err != nil {
		return nil, apperror.Field("member_card", err.Error())
	}
	if s.resolver == nil {
		return nil, apperror.Upstream("Identity directory is not configured", nil)
	}
	if _, err := s.resolver.ResolveByCard(ctx, card); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperror.NotFound("Member with card %s not found", card)
		}
		return nil, apperror.Upstream("Failed to resolve member", err)
	}
	agent := strings.TrimSpace(in.AgentID)
	return s.submit(ctx, submission{
		jobID:         in.JobID,
		card:          card,
		resume:        in.Resume,
		coverLetter:   in.CoverLetter,
		referral:      emptyToNil(&agent),
		requireResume: true,
		channel:       channelJobMitra,
	})
}

func (s *ApplicationService) submit(ctx context.Context, in submission) (*model.JobApplication, error) {
	var job model.Job
	var app model.JobApplication

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&job, in.jobID).Error; err != nil {
			return notFoundOr(err, "Job %d not found", in.jobID)
		}

		var count int64
		if err := tx.Model(&model.JobApplication{}).
			Where("job_id = ? AND member_card = ?", in.jobID, in.card).
			Count(&count).Error; err != nil {
			return apperror.Unexpected("Failed to check existing application", err)
		}
		if count > 0 {
			return apperror.Conflict("You have already applied to this job")
		}

		resume, err := resolveResume(tx, in.card, strings.TrimSpace(in.resume), s.now())
		if err != nil {
			return apperror.Unexpected("Failed to resolve resume", err)
		}
		if in.requireResume && resume == "" {
			return apperror.Field("resume", "member has no resume on file and none was supplied")
		}

		app = model.JobApplication{
			JobID:       job.ID,
			MemberCard:  in.card,
			InstituteID: in.instituteID,
			Resume:      resume,
			CoverLetter: in.coverLetter,
			Status:      model.ApplicationStatusApplied,
			AppliedAt:   s.now().UTC(),
			Referral:    in.referral,
		}
		if err := tx.Create(&app).Error; err != nil {
			switch {
			case database.IsUniqueViolation(err):
				return apperror.Conflict("You have already applied to this job")
			case database.IsForeignKeyViolation(err):
				return apperror.NotFound("Job %d not found", in.jobID)
			}
			return apperror.Unexpected("Failed to create application", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmitted.WithLabelValues(in.channel).Inc()
	s.notifier.Notify(notification.Event{
		Kind:          notification.KindApplicationSubmitted,
		CardNumber:    app.MemberCard,
		JobID:         job.ID,
		JobTitle:      job.Title,
		CompanyName:   job.CompanyName,
		ApplicationID: app.ID,
		Status:        app.Status,
	})
	return &app, nil
}

// resolveResume gets or creates the member's document record and settles the
// resume in one statement: a non-empty stored resume is kept, otherwise the
// submitted one is stored and its verification status reset to pending.
// It returns the effective resume.
func resolveResume(tx *gorm.DB, card, submitted string, now time.Time) (string, error) {
	initial, err := json.Marshal(model.PendingStatuses(model.AllSlotNames()))
	if err != nil {
		return "", err
	}
	var row struct {
		Resume string
	}
	err = tx.Raw(`
		INSERT INTO member_documents (card_number, resume, document_status, created_at, updated_at)
		VALUES (@card, @resume, CAST(@status AS jsonb), @now, @now)
		ON CONFLICT (card_number) DO UPDATE SET
			resume = CASE
				WHEN COALESCE(member_documents.resume, '') = '' THEN EXCLUDED.resume
				ELSE member_documents.resume
			END,
			document_status = CASE
				WHEN COALESCE(member_documents.resume, '') = '' AND EXCLUDED.resume <> ''
				THEN member_documents.document_status || jsonb_build_object(CAST(@slot AS text), CAST(@pending AS text))
				ELSE member_documents.document_status
			END,
			updated_at = EXCLUDED.updated_at
		RETURNING resume`,
		map[string]interface{}{
			"card":    card,
			"resume":  submitted,
			"status":  string(initial),
			"now":     now.UTC(),
			"slot":    model.SlotResume,
			"pending": model.DocumentStatusPending,
		},
	).Scan(&row).Error
	return row.Resume, err
}

// ListForMember returns a member's applications, most recent first.
func (s *ApplicationService) ListForMember(ctx context.Context, card string) (*MemberApplications, error) {
	apps := []model.JobApplication{}
	if err := s.DB.WithContext(ctx).Preload("Job").
		Where("member_card = ?", card).
		Order("applied_at DESC").Order("id DESC").
		Find(&apps).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch applications", err)
	}

	hasResume, err := memberHasResume(s.DB.WithContext(ctx), card)
	if err != nil {
		return nil, apperror.Unexpected("Failed to fetch documents", err)
	}

	out := &MemberApplications{HasResume: hasResume, Applications: make([]ApplicationView, 0, len(apps))}
	for _, a := range apps {
		out.Applications = append(out.Applications, toView(a))
	}
	return out, nil
}

// ListForJob returns every application to a job with member name and email
// from the directory. Rows whose member cannot be resolved keep null fields.
func (s *ApplicationService) ListForJob(ctx context.Context, jobID uint, f JobListFilter) ([]ApplicationView, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != "" && job.BusinessID != f.OwnerID {
		return nil, apperror.Forbidden("Job %d belongs to another business", jobID)
	}

	q := s.DB.WithContext(ctx).Where("job_id = ?", jobID)
	if f.InstituteID != "" {
		q = q.Where("institute_id = ?", f.InstituteID)
	}
	if f.MemberCard != "" {
		q = q.Where("member_card = ?", f.MemberCard)
	}
	apps := []model.JobApplication{}
	if err := q.Order("applied_at DESC").Order("id DESC").Find(&apps).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch applications", err)
	}
	for i := range apps {
		apps[i].Job = *job
	}
	return s.enrich(ctx, apps), nil
}

// ListByAgent lists applications an agent may follow up on, optionally
// narrowed to one job and one member.
func (s *ApplicationService) ListByAgent(ctx context.Context, jobID uint, card string) ([]ApplicationView, error) {
	q := s.DB.WithContext(ctx).Preload("Job")
	if jobID != 0 {
		q = q.Where("job_id = ?", jobID)
	}
	if card != "" {
		q = q.Where("member_card = ?", card)
	}
	apps := []model.JobApplication{}
	if err := q.Order("applied_at DESC").Order("id DESC").Find(&apps).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch applications", err)
	}
	return s.enrich(ctx, apps), nil
}

// ListForInstitute returns the applications an institute originated,
// optionally for one job, in which case the job is returned too.
func (s *ApplicationService) ListForInstitute(ctx context.Context, instituteID string, jobID uint) (*InstituteApplications, error) {
	out := &InstituteApplications{}
	q := s.DB.WithContext(ctx).Preload("Job").Where("institute_id = ?", instituteID)
	if jobID != 0 {
		job, err := s.jobs.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		out.Job = job
		q = q.Where("job_id = ?", jobID)
	}
	apps := []model.JobApplication{}
	if err := q.Order("applied_at DESC").Order("id DESC").Find(&apps).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch applications", err)
	}
	out.Applications = s.enrich(ctx, apps)
	return out, nil
}

func (s *ApplicationService) enrich(ctx context.Context, apps []model.JobApplication) []ApplicationView {
	cards := make([]string, 0, len(apps))
	for _, a := range apps {
		cards = append(cards, a.MemberCard)
	}
	members := identity.ResolveMembers(ctx, s.resolver, cards, s.concurrency)

	views := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		v := toView(a)
		if m, ok := members[a.MemberCard]; ok {
			v.FullName = nonEmpty(m.FullName)
			v.Email = nonEmpty(m.Email)
		}
		views = append(views, v)
	}
	return views
}

// Transition moves an application to a new status. Moving to the current
// status succeeds without a notification.
func (s *ApplicationService) Transition(ctx context.Context, in TransitionInput) (*model.JobApplication, error) {
	if !model.IsApplicationStatus(in.Status) {
		return nil, apperror.Field("status", "must be one of "+strings.Join(model.ApplicationStatuses, ", "))
	}

	var app model.JobApplication
	var job model.Job
	var previous string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND job_id = ?", in.ApplicationID, in.JobID).
			First(&app).Error; err != nil {
			return notFoundOr(err, "Application %d not found for job %d", in.ApplicationID, in.JobID)
		}
		if in.InstituteID != "" && (app.InstituteID == nil || *app.InstituteID != in.InstituteID) {
			return apperror.NotFound("Application %d not found for job %d", in.ApplicationID, in.JobID)
		}
		if err := tx.First(&job, app.JobID).Error; err != nil {
			return notFoundOr(err, "Job %d not found", app.JobID)
		}
		if in.OwnerID != "" && job.BusinessID != in.OwnerID {
			return apperror.Forbidden("Job %d belongs to another business", job.ID)
		}
		if err := s.transitions.Allow(app.Status, in.Status); err != nil {
			return err
		}

		previous = app.Status
		if previous == in.Status {
			return nil
		}
		if err := tx.Model(&app).Update("status", in.Status).Error; err != nil {
			return apperror.Unexpected("Failed to update application status", err)
		}
		app.Status = in.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != in.Status {
		metrics.StatusTransitions.WithLabelValues(in.Status).Inc()
		s.notifier.Notify(notification.Event{
			Kind:          notification.KindStatusChanged,
			CardNumber:    app.MemberCard,
			JobID:         job.ID,
			JobTitle:      job.Title,
			CompanyName:   job.CompanyName,
			ApplicationID: app.ID,
			Status:        in.Status,
		})
	}
	return &app, nil
}

// Comment sets the field agent comment of an application.
func (s *ApplicationService) Comment(ctx context.Context, applicationID, jobID uint, comment string) (*model.JobApplication, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperror.Field("comment", "must not be empty")
	}
	var app model.JobApplication
	if err := s.DB.WithContext(ctx).Where("id = ? AND job_id = ?", applicationID, jobID).First(&app).Error; err != nil {
		return nil, notFoundOr(err, "Application %d not found for job %d", applicationID, jobID)
	}
	if err := s.DB.WithContext(ctx).Model(&app).Update("jobmitra_comment", comment).Error; err != nil {
		return nil, apperror.Unexpected("Failed to save comment", err)
	}
	app.JobMitraComment = &comment
	return &app, nil
}

func toView(a model.JobApplication) ApplicationView {
	return ApplicationView{
		ID:              a.ID,
		JobID:           a.JobID,
		JobTitle:        a.Job.Title,
		CompanyName:     a.Job.CompanyName,
		MemberCard:      a.MemberCard,
		InstituteID:     a.InstituteID,
		Resume:          a.Resume,
		ResumeName:      model.DisplayName(a.Resume),
		CoverLetter:     a.CoverLetter,
		Status:          a.Status,
		AppliedAt:       a.AppliedAt,
		Referral:        a.Referral,
		JobMitraComment: a.JobMitraComment,
	}
}

func memberHasResume(db *gorm.DB, card string) (bool, error) {
	var count int64
	err := db.Model(&model.MemberDocuments{}).
		Where("card_number = ? AND COALESCE(resume, '') <> ''", card).
		Count(&count).Error
	return count > 0, err
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
