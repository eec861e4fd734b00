package mturk

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmturk "github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"
)

// Assignment is one worker's submission for a HIT with the answer document
// already decoded into a map.
type Assignment struct {
	AssignmentID string
	WorkerID     string
	HITID        string

	Status types.AssignmentStatus

	// Answer holds the decoded answer fields keyed by question identifier.
	Answer map[string]any

	AcceptTime       time.Time
	SubmitTime       time.Time
	ApprovalTime     time.Time
	RejectionTime    time.Time
	AutoApprovalTime time.Time
	Deadline         time.Time

	// WorkTime is the span between accept and submit.
	WorkTime time.Duration

	Feedback string
}

func assignmentFromAPI(a *types.Assignment) (*Assignment, error) {
	out := &Assignment{
		AssignmentID:     aws.ToString(a.AssignmentId),
		WorkerID:         aws.ToString(a.WorkerId),
		HITID:            aws.ToString(a.HITId),
		Status:           a.AssignmentStatus,
		AcceptTime:       aws.ToTime(a.AcceptTime),
		SubmitTime:       aws.ToTime(a.SubmitTime),
		ApprovalTime:     aws.ToTime(a.ApprovalTime),
		RejectionTime:    aws.ToTime(a.RejectionTime),
		AutoApprovalTime: aws.ToTime(a.AutoApprovalTime),
		Deadline:         aws.ToTime(a.Deadline),
		Feedback:         aws.ToString(a.RequesterFeedback),
	}
	if !out.AcceptTime.IsZero() && !out.SubmitTime.IsZero() {
		out.WorkTime = out.SubmitTime.Sub(out.AcceptTime).Round(time.Second)
	}
	if answer := aws.ToString(a.Answer); answer != "" {
		parsed, err := ParseAnswers(answer)
		if err != nil {
			return nil, err
		}
		out.Answer = parsed
	}
	return out, nil
}

// ListAssignments returns the worker submissions for a HIT with their answer
// documents decoded. With no statuses it covers submitted, approved, and
// rejected assignments. Each call re-fetches from the service.
func (c *Client) ListAssignments(ctx context.Context, hitID string, statuses ...types.AssignmentStatus) ([]*Assignment, error) {
	if len(statuses) == 0 {
		statuses = []types.AssignmentStatus{
			types.AssignmentStatusSubmitted,
			types.AssignmentStatusApproved,
			types.AssignmentStatusRejected,
		}
	}
	var assignments []*Assignment
	paginator := awsmturk.NewListAssignmentsForHITPaginator(c.api, &awsmturk.ListAssignmentsForHITInput{
		HITId:              aws.String(hitID),
		AssignmentStatuses: statuses,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("larry: list assignments for hit %s: %w", hitID, err)
		}
		for i := range page.Assignments {
			a, err := assignmentFromAPI(&page.Assignments[i])
			if err != nil {
				return nil, err
			}
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

// GetAssignment retrieves a single assignment together with its HIT.
func (c *Client) GetAssignment(ctx context.Context, assignmentID string) (*Assignment, *HIT, error) {
	out, err := c.api.GetAssignment(ctx, &awsmturk.GetAssignmentInput{
		AssignmentId: aws.String(assignmentID),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("larry: get assignment %s: %w", assignmentID, err)
	}
	a, err := assignmentFromAPI(out.Assignment)
	if err != nil {
		return nil, nil, err
	}
	return a, hitFromAPI(out.HIT, c.env), nil
}

// Approve accepts a worker's submission, paying the reward. feedback is
// shown to the worker and may be empty. overrideRejection reverses an
// earlier rejection.
func (c *Client) Approve(ctx context.Context, assignmentID, feedback string, overrideRejection bool) error {
	params := &awsmturk.ApproveAssignmentInput{AssignmentId: aws.String(assignmentID)}
	if feedback != "" {
		params.RequesterFeedback = aws.String(feedback)
	}
	if overrideRejection {
		params.OverrideRejection = aws.Bool(true)
	}
	if _, err := c.api.ApproveAssignment(ctx, params); err != nil {
		return fmt.Errorf("larry: approve assignment %s: %w", assignmentID, err)
	}
	return nil
}

// Reject declines a worker's submission. The service requires feedback
// explaining the rejection.
func (c *Client) Reject(ctx context.Context, assignmentID, feedback string) error {
	_, err := c.api.RejectAssignment(ctx, &awsmturk.RejectAssignmentInput{
		AssignmentId:      aws.String(assignmentID),
		RequesterFeedback: aws.String(feedback),
	})
	if err != nil {
		return fmt.Errorf("larry: reject assignment %s: %w", assignmentID, err)
	}
	return nil
}
