package mturk_test

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmturk "github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"

	"github.com/dschultz0/larry/mturk"
)

// fakeMTurk records requester API calls and plays back canned responses.
type fakeMTurk struct {
	createInput       *awsmturk.CreateHITInput
	approveInput      *awsmturk.ApproveAssignmentInput
	rejectInput       *awsmturk.RejectAssignmentInput
	notificationInput *awsmturk.UpdateNotificationSettingsInput
	expireInput       *awsmturk.UpdateExpirationForHITInput
	addInput          *awsmturk.CreateAdditionalAssignmentsForHITInput

	hit         *types.HIT
	assignments []types.Assignment
	balance     string
}

func (f *fakeMTurk) CreateHIT(_ context.Context, params *awsmturk.CreateHITInput, _ ...func(*awsmturk.Options)) (*awsmturk.CreateHITOutput, error) {
	f.createInput = params
	hit := &types.HIT{
		HITId:                       aws.String("HIT1"),
		HITTypeId:                   aws.String("TYPE1"),
		Title:                       params.Title,
		Description:                 params.Description,
		Reward:                      params.Reward,
		Question:                    params.Question,
		RequesterAnnotation:         params.RequesterAnnotation,
		MaxAssignments:              params.MaxAssignments,
		AssignmentDurationInSeconds: params.AssignmentDurationInSeconds,
		HITStatus:                   types.HITStatusAssignable,
	}
	return &awsmturk.CreateHITOutput{HIT: hit}, nil
}

func (f *fakeMTurk) GetHIT(_ context.Context, _ *awsmturk.GetHITInput, _ ...func(*awsmturk.Options)) (*awsmturk.GetHITOutput, error) {
	return &awsmturk.GetHITOutput{HIT: f.hit}, nil
}

func (f *fakeMTurk) ListHITs(_ context.Context, params *awsmturk.ListHITsInput, _ ...func(*awsmturk.Options)) (*awsmturk.ListHITsOutput, error) {
	if f.hit == nil {
		return &awsmturk.ListHITsOutput{}, nil
	}
	return &awsmturk.ListHITsOutput{HITs: []types.HIT{*f.hit}}, nil
}

func (f *fakeMTurk) UpdateExpirationForHIT(_ context.Context, params *awsmturk.UpdateExpirationForHITInput, _ ...func(*awsmturk.Options)) (*awsmturk.UpdateExpirationForHITOutput, error) {
	f.expireInput = params
	return &awsmturk.UpdateExpirationForHITOutput{}, nil
}

func (f *fakeMTurk) CreateAdditionalAssignmentsForHIT(_ context.Context, params *awsmturk.CreateAdditionalAssignmentsForHITInput, _ ...func(*awsmturk.Options)) (*awsmturk.CreateAdditionalAssignmentsForHITOutput, error) {
	f.addInput = params
	return &awsmturk.CreateAdditionalAssignmentsForHITOutput{}, nil
}

func (f *fakeMTurk) ListAssignmentsForHIT(_ context.Context, params *awsmturk.ListAssignmentsForHITInput, _ ...func(*awsmturk.Options)) (*awsmturk.ListAssignmentsForHITOutput, error) {
	return &awsmturk.ListAssignmentsForHITOutput{Assignments: f.assignments}, nil
}

func (f *fakeMTurk) GetAssignment(_ context.Context, _ *awsmturk.GetAssignmentInput, _ ...func(*awsmturk.Options)) (*awsmturk.GetAssignmentOutput, error) {
	return &awsmturk.GetAssignmentOutput{Assignment: &f.assignments[0], HIT: f.hit}, nil
}

func (f *fakeMTurk) ApproveAssignment(_ context.Context, params *awsmturk.ApproveAssignmentInput, _ ...func(*awsmturk.Options)) (*awsmturk.ApproveAssignmentOutput, error) {
	f.approveInput = params
	return &awsmturk.ApproveAssignmentOutput{}, nil
}

func (f *fakeMTurk) RejectAssignment(_ context.Context, params *awsmturk.RejectAssignmentInput, _ ...func(*awsmturk.Options)) (*awsmturk.RejectAssignmentOutput, error) {
	f.rejectInput = params
	return &awsmturk.RejectAssignmentOutput{}, nil
}

func (f *fakeMTurk) GetAccountBalance(_ context.Context, _ *awsmturk.GetAccountBalanceInput, _ ...func(*awsmturk.Options)) (*awsmturk.GetAccountBalanceOutput, error) {
	return &awsmturk.GetAccountBalanceOutput{AvailableBalance: aws.String(f.balance)}, nil
}

func (f *fakeMTurk) UpdateNotificationSettings(_ context.Context, params *awsmturk.UpdateNotificationSettingsInput, _ ...func(*awsmturk.Options)) (*awsmturk.UpdateNotificationSettingsOutput, error) {
	f.notificationInput = params
	return &awsmturk.UpdateNotificationSettingsOutput{}, nil
}

func TestCreateHITDefaults(t *testing.T) {
	ctx := context.Background()
	fake := &fakeMTurk{}
	client := mturk.New(fake)

	hit, err := client.CreateHIT(ctx, mturk.CreateHITInput{
		Title:       "Categorize images",
		Description: "Pick the best label",
		RewardCents: 50,
		Question:    mturk.ExternalQuestion("https://tasks.example.com", 0),
	})
	if err != nil {
		t.Fatalf("CreateHIT() error = %v", err)
	}

	if got := aws.ToString(fake.createInput.Reward); got != "0.50" {
		t.Errorf("reward = %q, want 0.50", got)
	}
	if got := aws.ToInt64(fake.createInput.LifetimeInSeconds); got != 86400 {
		t.Errorf("lifetime = %d, want 86400", got)
	}
	if got := aws.ToInt64(fake.createInput.AssignmentDurationInSeconds); got != 3600 {
		t.Errorf("assignment duration = %d, want 3600", got)
	}
	if hit.HITID != "HIT1" {
		t.Errorf("hit id = %q", hit.HITID)
	}
	if hit.Environment != mturk.Production {
		t.Errorf("hit environment = %q", hit.Environment)
	}
}

func TestCreateHITExplicit(t *testing.T) {
	ctx := context.Background()
	fake := &fakeMTurk{}
	client := mturk.New(fake, mturk.WithEnvironment(mturk.Sandbox))

	_, err := client.CreateHIT(ctx, mturk.CreateHITInput{
		Title:              "Transcribe audio",
		Description:        "Type what you hear",
		RewardCents:        125,
		Lifetime:           2 * time.Hour,
		AssignmentDuration: 10 * time.Minute,
		MaxAssignments:     3,
		Question:           mturk.ExternalQuestion("https://tasks.example.com", 0),
		Annotation:         `{"payload":"batch-9"}`,
		RequestToken:       "tok-1",
	})
	if err != nil {
		t.Fatalf("CreateHIT() error = %v", err)
	}

	if got := aws.ToString(fake.createInput.Reward); got != "1.25" {
		t.Errorf("reward = %q, want 1.25", got)
	}
	if got := aws.ToInt64(fake.createInput.LifetimeInSeconds); got != 7200 {
		t.Errorf("lifetime = %d", got)
	}
	if got := aws.ToInt32(fake.createInput.MaxAssignments); got != 3 {
		t.Errorf("max assignments = %d", got)
	}
	if got := aws.ToString(fake.createInput.UniqueRequestToken); got != "tok-1" {
		t.Errorf("request token = %q", got)
	}
}

func TestRewardCents(t *testing.T) {
	hit := &mturk.HIT{Reward: "0.50"}
	cents, err := hit.RewardCents()
	if err != nil || cents != 50 {
		t.Errorf("RewardCents() = (%d, %v), want (50, nil)", cents, err)
	}
}

func TestListAssignmentsDecodesAnswers(t *testing.T) {
	ctx := context.Background()
	accept := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	submit := accept.Add(95 * time.Second)
	fake := &fakeMTurk{
		assignments: []types.Assignment{{
			AssignmentId:     aws.String("ASGN1"),
			WorkerId:         aws.String("W1"),
			HITId:            aws.String("HIT1"),
			AssignmentStatus: types.AssignmentStatusSubmitted,
			AcceptTime:       aws.Time(accept),
			SubmitTime:       aws.Time(submit),
			Answer: aws.String(`<QuestionFormAnswers xmlns="` + answerNS + `">
  <Answer><QuestionIdentifier>label</QuestionIdentifier><FreeText>cat</FreeText></Answer>
</QuestionFormAnswers>`),
		}},
	}
	client := mturk.New(fake)

	assignments, err := client.ListAssignments(ctx, "HIT1")
	if err != nil {
		t.Fatalf("ListAssignments() error = %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("ListAssignments() returned %d assignments", len(assignments))
	}
	a := assignments[0]
	if a.Answer["label"] != "cat" {
		t.Errorf("answer = %#v", a.Answer)
	}
	if a.WorkTime != 95*time.Second {
		t.Errorf("work time = %v, want 95s", a.WorkTime)
	}
}

func TestApproveReject(t *testing.T) {
	ctx := context.Background()
	fake := &fakeMTurk{}
	client := mturk.New(fake)

	if err := client.Approve(ctx, "ASGN1", "thanks", false); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if got := aws.ToString(fake.approveInput.RequesterFeedback); got != "thanks" {
		t.Errorf("approve feedback = %q", got)
	}
	if fake.approveInput.OverrideRejection != nil {
		t.Error("override rejection set without being requested")
	}

	if err := client.Reject(ctx, "ASGN1", "incomplete work"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if got := aws.ToString(fake.rejectInput.RequesterFeedback); got != "incomplete work" {
		t.Errorf("reject feedback = %q", got)
	}
}

func TestAccountBalance(t *testing.T) {
	client := mturk.New(&fakeMTurk{balance: "10000.00"})
	balance, err := client.AccountBalance(context.Background())
	if err != nil || balance != 10000 {
		t.Errorf("AccountBalance() = (%v, %v)", balance, err)
	}
}

func TestPreviewURL(t *testing.T) {
	prod := mturk.New(&fakeMTurk{})
	if got := prod.PreviewURL("TYPE1"); got != "https://worker.mturk.com/mturk/preview?groupId=TYPE1" {
		t.Errorf("PreviewURL() = %q", got)
	}
	sandbox := mturk.New(&fakeMTurk{}, mturk.WithEnvironment(mturk.Sandbox))
	if got := sandbox.PreviewURL("TYPE1"); got != "https://workersandbox.mturk.com/mturk/preview?groupId=TYPE1" {
		t.Errorf("PreviewURL() sandbox = %q", got)
	}
}

func TestEnvironmentEndpoints(t *testing.T) {
	if got := mturk.Production.Endpoint(); got != "https://mturk-requester.us-east-1.amazonaws.com" {
		t.Errorf("production endpoint = %q", got)
	}
	if got := mturk.Sandbox.Endpoint(); got != "https://mturk-requester-sandbox.us-east-1.amazonaws.com" {
		t.Errorf("sandbox endpoint = %q", got)
	}
}

func TestAddNotificationTransport(t *testing.T) {
	ctx := context.Background()
	fake := &fakeMTurk{}
	client := mturk.New(fake)

	err := client.AddNotification(ctx, "TYPE1", "https://sqs.us-east-1.amazonaws.com/123/queue", []types.EventType{types.EventTypeAssignmentSubmitted})
	if err != nil {
		t.Fatalf("AddNotification() error = %v", err)
	}
	if fake.notificationInput.Notification.Transport != types.NotificationTransportSqs {
		t.Errorf("transport = %q, want SQS", fake.notificationInput.Notification.Transport)
	}

	err = client.AddNotification(ctx, "TYPE1", "arn:aws:sns:us-east-1:123:topic", []types.EventType{types.EventTypeHITExpired})
	if err != nil {
		t.Fatalf("AddNotification() error = %v", err)
	}
	if fake.notificationInput.Notification.Transport != types.NotificationTransportSns {
		t.Errorf("transport = %q, want SNS", fake.notificationInput.Notification.Transport)
	}
}

func TestAnnotationRoundTripThroughHIT(t *testing.T) {
	ctx := context.Background()
	fake := &fakeMTurk{hit: &types.HIT{
		HITId:               aws.String("HIT1"),
		RequesterAnnotation: aws.String(`{"payload":{"batch":"b-3"}}`),
	}}
	client := mturk.New(fake)

	got, err := client.Annotation(ctx, "HIT1", false)
	if err != nil {
		t.Fatalf("Annotation() error = %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok || m["batch"] != "b-3" {
		t.Errorf("Annotation() = %#v", got)
	}
}
