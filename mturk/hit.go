package mturk

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmturk "github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"
)

// HIT is a snapshot of a task as reported by the service. It carries no
// connection state; pass its HITID back to a Client to act on it.
type HIT struct {
	HITID       string
	HITTypeID   string
	HITGroupID  string
	HITLayoutID string

	Title       string
	Description string
	Keywords    string
	Question    string
	Annotation  string

	Status       types.HITStatus
	ReviewStatus types.HITReviewStatus

	Reward             string
	MaxAssignments     int32
	AssignmentDuration time.Duration
	AutoApprovalDelay  time.Duration
	CreationTime       time.Time
	Expiration         time.Time

	Pending   int32
	Available int32
	Completed int32

	QualificationRequirements []types.QualificationRequirement

	Environment Environment
}

// RewardCents returns the per-assignment reward in cents.
func (h *HIT) RewardCents() (int, error) {
	dollars, err := strconv.ParseFloat(h.Reward, 64)
	if err != nil {
		return 0, fmt.Errorf("larry: parse reward %q: %w", h.Reward, err)
	}
	return int(dollars*100 + 0.5), nil
}

func hitFromAPI(h *types.HIT, env Environment) *HIT {
	out := &HIT{
		HITID:                     aws.ToString(h.HITId),
		HITTypeID:                 aws.ToString(h.HITTypeId),
		HITGroupID:                aws.ToString(h.HITGroupId),
		HITLayoutID:               aws.ToString(h.HITLayoutId),
		Title:                     aws.ToString(h.Title),
		Description:               aws.ToString(h.Description),
		Keywords:                  aws.ToString(h.Keywords),
		Question:                  aws.ToString(h.Question),
		Annotation:                aws.ToString(h.RequesterAnnotation),
		Status:                    h.HITStatus,
		ReviewStatus:              h.HITReviewStatus,
		Reward:                    aws.ToString(h.Reward),
		MaxAssignments:            aws.ToInt32(h.MaxAssignments),
		AssignmentDuration:        time.Duration(aws.ToInt64(h.AssignmentDurationInSeconds)) * time.Second,
		AutoApprovalDelay:         time.Duration(aws.ToInt64(h.AutoApprovalDelayInSeconds)) * time.Second,
		CreationTime:              aws.ToTime(h.CreationTime),
		Expiration:                aws.ToTime(h.Expiration),
		Pending:                   aws.ToInt32(h.NumberOfAssignmentsPending),
		Available:                 aws.ToInt32(h.NumberOfAssignmentsAvailable),
		Completed:                 aws.ToInt32(h.NumberOfAssignmentsCompleted),
		QualificationRequirements: h.QualificationRequirements,
		Environment:               env,
	}
	return out
}

// CreateHITInput describes a new task. Title, Description, RewardCents and
// Question are required by the service; zero durations fall back to a one
// day lifetime and a one hour assignment duration.
type CreateHITInput struct {
	Title       string
	Description string
	Keywords    string

	RewardCents        int
	Lifetime           time.Duration
	AssignmentDuration time.Duration
	AutoApprovalDelay  time.Duration
	MaxAssignments     int32

	// Question holds HTMLQuestion or ExternalQuestion XML.
	Question string

	// Annotation is stored in the RequesterAnnotation field, usually the
	// output of PackAnnotation.
	Annotation string

	QualificationRequirements []types.QualificationRequirement

	// RequestToken makes the create call idempotent when retried.
	RequestToken string
}

// CreateHIT publishes a new task and returns its initial state.
func (c *Client) CreateHIT(ctx context.Context, in CreateHITInput) (*HIT, error) {
	params := &awsmturk.CreateHITInput{
		Title:                       aws.String(in.Title),
		Description:                 aws.String(in.Description),
		Reward:                      aws.String(strconv.FormatFloat(float64(in.RewardCents)/100, 'f', 2, 64)),
		LifetimeInSeconds:           secondsOrDefault(in.Lifetime, 24*time.Hour),
		AssignmentDurationInSeconds: secondsOrDefault(in.AssignmentDuration, time.Hour),
		Question:                    aws.String(in.Question),
		QualificationRequirements:   in.QualificationRequirements,
	}
	if in.Keywords != "" {
		params.Keywords = aws.String(in.Keywords)
	}
	if in.MaxAssignments > 0 {
		params.MaxAssignments = aws.Int32(in.MaxAssignments)
	}
	if in.AutoApprovalDelay > 0 {
		params.AutoApprovalDelayInSeconds = aws.Int64(int64(in.AutoApprovalDelay / time.Second))
	}
	if in.Annotation != "" {
		params.RequesterAnnotation = aws.String(in.Annotation)
	}
	if in.RequestToken != "" {
		params.UniqueRequestToken = aws.String(in.RequestToken)
	}

	out, err := c.api.CreateHIT(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("larry: create hit: %w", err)
	}
	return hitFromAPI(out.HIT, c.env), nil
}

// GetHIT retrieves the current state of a task.
func (c *Client) GetHIT(ctx context.Context, hitID string) (*HIT, error) {
	out, err := c.api.GetHIT(ctx, &awsmturk.GetHITInput{HITId: aws.String(hitID)})
	if err != nil {
		return nil, fmt.Errorf("larry: get hit %s: %w", hitID, err)
	}
	return hitFromAPI(out.HIT, c.env), nil
}

// ListHITs returns every HIT in the account that has not been deleted,
// paginating through all results.
func (c *Client) ListHITs(ctx context.Context) ([]*HIT, error) {
	var hits []*HIT
	paginator := awsmturk.NewListHITsPaginator(c.api, &awsmturk.ListHITsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("larry: list hits: %w", err)
		}
		for i := range page.HITs {
			hits = append(hits, hitFromAPI(&page.HITs[i], c.env))
		}
	}
	return hits, nil
}

// UpdateExpiration moves the task's expiration to the given time.
func (c *Client) UpdateExpiration(ctx context.Context, hitID string, expireAt time.Time) error {
	_, err := c.api.UpdateExpirationForHIT(ctx, &awsmturk.UpdateExpirationForHITInput{
		HITId:    aws.String(hitID),
		ExpireAt: aws.Time(expireAt),
	})
	if err != nil {
		return fmt.Errorf("larry: update expiration for hit %s: %w", hitID, err)
	}
	return nil
}

// ExpireHIT immediately stops the task from accepting new assignments.
func (c *Client) ExpireHIT(ctx context.Context, hitID string) error {
	return c.UpdateExpiration(ctx, hitID, time.Now())
}

// AddAssignments raises the task's MaxAssignments by n. requestToken makes
// the call idempotent and may be empty.
func (c *Client) AddAssignments(ctx context.Context, hitID string, n int32, requestToken string) error {
	params := &awsmturk.CreateAdditionalAssignmentsForHITInput{
		HITId:                         aws.String(hitID),
		NumberOfAdditionalAssignments: aws.Int32(n),
	}
	if requestToken != "" {
		params.UniqueRequestToken = aws.String(requestToken)
	}
	if _, err := c.api.CreateAdditionalAssignmentsForHIT(ctx, params); err != nil {
		return fmt.Errorf("larry: add assignments to hit %s: %w", hitID, err)
	}
	return nil
}

// Annotation retrieves the task's requester annotation and unpacks it into
// its original payload. When deleteTemp is set any S3 spill object holding
// the payload is removed after it is read.
func (c *Client) Annotation(ctx context.Context, hitID string, deleteTemp bool) (any, error) {
	hit, err := c.GetHIT(ctx, hitID)
	if err != nil {
		return nil, err
	}
	return UnpackAnnotation(ctx, c.store, hit.Annotation, deleteTemp)
}
