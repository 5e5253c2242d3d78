package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/notification"
)

func countApplications(t *testing.T, jobID uint, card string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testDB.Model(&model.JobApplication{}).
		Where("job_id = ? AND member_card = ?", jobID, card).Count(&n).Error)
	return n
}

func storedResume(t *testing.T, card string) string {
	t.Helper()
	var docs model.MemberDocuments
	require.NoError(t, testDB.Where("card_number = ?", card).First(&docs).Error)
	return docs.Resume
}

func TestSubmit_ResumeStickiness(t *testing.T) {
	svc, _, notifier := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()

	first, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: card, Resume: "r1.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "r1.pdf", first.Resume)
	assert.Equal(t, model.ApplicationStatusApplied, first.Status)
	assert.Equal(t, "r1.pdf", storedResume(t, card))

	second, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob2.ID, MemberCard: card, Resume: "r2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "r1.pdf", second.Resume)
	assert.Equal(t, "r1.pdf", storedResume(t, card))

	assert.Equal(t, 2, notifier.count(notification.KindApplicationSubmitted, card))
}

func TestSubmit_WithoutResumeKeepsStoreEmpty(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	card := newCard()

	app, err := svc.Applications.Submit(context.Background(), SubmitInput{JobID: database.TestJob1.ID, MemberCard: card})
	require.NoError(t, err)
	assert.Equal(t, "", app.Resume)
	assert.Equal(t, "", storedResume(t, card))

	app, err = svc.Applications.Submit(context.Background(), SubmitInput{JobID: database.TestJob2.ID, MemberCard: card, Resume: "later.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "later.pdf", app.Resume)
	assert.Equal(t, "later.pdf", storedResume(t, card))
}

func TestSubmit_DuplicateIsConflict(t *testing.T) {
	svc, _, notifier := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()

	_, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: card, Resume: "cv.pdf"})
	require.NoError(t, err)

	_, err = svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: card, Resume: "cv.pdf"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, int64(1), countApplications(t, database.TestJob1.ID, card))
	assert.Equal(t, 1, notifier.count(notification.KindApplicationSubmitted, card))
}

func TestSubmit_ConcurrentAttemptsCreateOneRow(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	card := newCard()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Applications.Submit(context.Background(), SubmitInput{
				JobID: database.TestJob1.ID, MemberCard: card, Resume: "same.pdf",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, apperror.Is(err, apperror.KindConflict), err.Error())
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int64(1), countApplications(t, database.TestJob1.ID, card))
}

func TestSubmit_ConcurrentFirstResumes(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	card := newCard()

	var wg sync.WaitGroup
	resumes := make([]string, 2)
	for i, job := range []uint{database.TestJob1.ID, database.TestJob2.ID} {
		wg.Add(1)
		go func(i int, job uint) {
			defer wg.Done()
			app, err := svc.Applications.Submit(context.Background(), SubmitInput{
				JobID: job, MemberCard: card, Resume: []string{"a.pdf", "b.pdf"}[i],
			})
			if assert.NoError(t, err) {
				resumes[i] = app.Resume
			}
		}(i, job)
	}
	wg.Wait()

	stored := storedResume(t, card)
	assert.Equal(t, stored, resumes[0])
	assert.Equal(t, stored, resumes[1])
}

func TestSubmit_Errors(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	ctx := context.Background()

	_, err := svc.Applications.Submit(ctx, SubmitInput{JobID: 999999, MemberCard: newCard()})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: "12345"})
	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "member_card")
}

func TestSubmitForMember(t *testing.T) {
	svc, resolver, _ := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()
	resolver.addMember(card, "Asha Patil", "asha@example.com")

	_, err := svc.Applications.SubmitForMember(ctx, ProxyInput{JobID: database.TestMitraJob.ID, MemberCard: card, AgentID: "JM-7"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, int64(0), countApplications(t, database.TestMitraJob.ID, card))

	app, err := svc.Applications.SubmitForMember(ctx, ProxyInput{JobID: database.TestMitraJob.ID, MemberCard: card, Resume: "agent.pdf", AgentID: "JM-7"})
	require.NoError(t, err)
	require.NotNil(t, app.Referral)
	assert.Equal(t, "JM-7", *app.Referral)
	assert.Equal(t, "agent.pdf", app.Resume)

	// resume on file satisfies the requirement on later applications
	app, err = svc.Applications.SubmitForMember(ctx, ProxyInput{JobID: database.TestJob1.ID, MemberCard: card, AgentID: "JM-7"})
	require.NoError(t, err)
	assert.Equal(t, "agent.pdf", app.Resume)
}

func TestSubmitForMember_IdentityFailures(t *testing.T) {
	svc, resolver, _ := newTestServices(Options{})
	ctx := context.Background()

	_, err := svc.Applications.SubmitForMember(ctx, ProxyInput{JobID: database.TestJob1.ID, MemberCard: newCard(), Resume: "x.pdf"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	card := newCard()
	resolver.failing[card] = true
	_, err = svc.Applications.SubmitForMember(ctx, ProxyInput{JobID: database.TestJob1.ID, MemberCard: card, Resume: "x.pdf"})
	assert.True(t, apperror.Is(err, apperror.KindUpstream))
}

func TestListForMember(t *testing.T) {
	base := time.Now()
	tick := base
	svc, _, _ := newTestServices(Options{Now: func() time.Time { tick = tick.Add(time.Minute); return tick }})
	ctx := context.Background()
	card := newCard()

	empty, err := svc.Applications.ListForMember(ctx, card)
	require.NoError(t, err)
	assert.False(t, empty.HasResume)
	assert.Empty(t, empty.Applications)

	_, err = svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: card, Resume: "https://cdn.example.com/cv/member_resume_final.pdf"})
	require.NoError(t, err)
	_, err = svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob2.ID, MemberCard: card})
	require.NoError(t, err)

	got, err := svc.Applications.ListForMember(ctx, card)
	require.NoError(t, err)
	assert.True(t, got.HasResume)
	require.Len(t, got.Applications, 2)
	assert.Equal(t, database.TestJob2.ID, got.Applications[0].JobID)
	assert.Equal(t, database.TestJob2.Title, got.Applications[0].JobTitle)
	assert.Equal(t, database.TestJob1.CompanyName, got.Applications[1].CompanyName)
	assert.Equal(t, "esume_final.pdf", got.Applications[1].ResumeName)
}

func TestListForJob_EnrichesAndDegrades(t *testing.T) {
	svc, resolver, _ := newTestServices(Options{IdentityConcurrency: 2})
	ctx := context.Background()

	job, err := svc.Jobs.Create(ctx, database.TestBusinessID, model.EditableJobInfo{Title: "Listing job", CompanyName: "Shree Logistics"})
	require.NoError(t, err)

	known, broken := newCard(), newCard()
	resolver.addMember(known, "Ravi Kumar", "ravi@example.com")
	resolver.failing[broken] = true

	inst := database.TestInstituteID
	_, err = svc.Applications.Submit(ctx, SubmitInput{JobID: job.ID, MemberCard: known, InstituteID: &inst})
	require.NoError(t, err)
	_, err = svc.Applications.Submit(ctx, SubmitInput{JobID: job.ID, MemberCard: broken})
	require.NoError(t, err)

	rows, err := svc.Applications.ListForJob(ctx, job.ID, JobListFilter{OwnerID: database.TestBusinessID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byCard := map[string]ApplicationView{}
	for _, r := range rows {
		byCard[r.MemberCard] = r
	}
	require.NotNil(t, byCard[known].FullName)
	assert.Equal(t, "Ravi Kumar", *byCard[known].FullName)
	assert.Equal(t, "ravi@example.com", *byCard[known].Email)
	assert.Nil(t, byCard[broken].FullName)
	assert.Nil(t, byCard[broken].Email)

	rows, err = svc.Applications.ListForJob(ctx, job.ID, JobListFilter{InstituteID: database.TestInstituteID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, known, rows[0].MemberCard)

	_, err = svc.Applications.ListForJob(ctx, job.ID, JobListFilter{OwnerID: database.TestOtherBusinessID})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = svc.Applications.ListForJob(ctx, 999999, JobListFilter{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestListForInstitute(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	ctx := context.Background()
	inst := "INST-" + newCard()[12:]
	card := newCard()

	_, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: card, InstituteID: &inst})
	require.NoError(t, err)
	_, err = svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob2.ID, MemberCard: card, InstituteID: &inst})
	require.NoError(t, err)

	all, err := svc.Applications.ListForInstitute(ctx, inst, 0)
	require.NoError(t, err)
	assert.Len(t, all.Applications, 2)
	assert.Nil(t, all.Job)

	one, err := svc.Applications.ListForInstitute(ctx, inst, database.TestJob1.ID)
	require.NoError(t, err)
	require.Len(t, one.Applications, 1)
	require.NotNil(t, one.Job)
	assert.Equal(t, database.TestJob1.Title, one.Job.Title)
}

func TestTransition(t *testing.T) {
	svc, _, notifier := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()

	app, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: card})
	require.NoError(t, err)

	moved, err := svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusSelected})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusSelected, moved.Status)
	assert.Equal(t, 1, notifier.count(notification.KindStatusChanged, card))

	again, err := svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusSelected})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusSelected, again.Status)
	assert.Equal(t, 1, notifier.count(notification.KindStatusChanged, card))

	// any status may move to any other
	back, err := svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusApplied})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusApplied, back.Status)
	assert.Equal(t, 2, notifier.count(notification.KindStatusChanged, card))

	var stored model.JobApplication
	require.NoError(t, testDB.First(&stored, app.ID).Error)
	assert.Equal(t, model.ApplicationStatusApplied, stored.Status)
}

func TestTransition_Errors(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	ctx := context.Background()
	card := newCard()
	app, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: card})
	require.NoError(t, err)

	_, err = svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob2.ID, Status: model.ApplicationStatusRejected})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: "hired"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusRejected, OwnerID: database.TestOtherBusinessID})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusRejected, InstituteID: "INST-X"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestTransition_StrictPolicy(t *testing.T) {
	svc, _, _ := newTestServices(Options{Transitions: ForwardOnlyTransitions})
	ctx := context.Background()
	app, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: newCard()})
	require.NoError(t, err)

	_, err = svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusSelected})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusShortlisted})
	require.NoError(t, err)
	_, err = svc.Applications.Transition(ctx, TransitionInput{ApplicationID: app.ID, JobID: database.TestJob1.ID, Status: model.ApplicationStatusSelected})
	require.NoError(t, err)
}

func TestComment(t *testing.T) {
	svc, _, _ := newTestServices(Options{})
	ctx := context.Background()
	app, err := svc.Applications.Submit(ctx, SubmitInput{JobID: database.TestJob1.ID, MemberCard: newCard()})
	require.NoError(t, err)

	got, err := svc.Applications.Comment(ctx, app.ID, database.TestJob1.ID, " called, interview on Monday ")
	require.NoError(t, err)
	require.NotNil(t, got.JobMitraComment)
	assert.Equal(t, "called, interview on Monday", *got.JobMitraComment)

	_, err = svc.Applications.Comment(ctx, app.ID, database.TestJob1.ID, "  ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Applications.Comment(ctx, app.ID, database.TestJob2.ID, "x")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
