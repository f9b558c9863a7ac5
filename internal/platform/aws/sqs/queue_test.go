package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/orchestrator/internal/catalog"
	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/resource"
)

func testArgs() config.QueueArgs {
	return config.QueueArgs{Prefix: "orch", Suffix: "q1", QueueBaseURL: "https://q.example/"}
}

func TestNew_ProviderMismatch(t *testing.T) {
	t.Parallel()

	_, err := New(cloud.NewGCPProvider("proj"))
	var cfgErr *resource.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, resource.Queue, cfgErr.Kind)

	q, err := New(cloud.NewAWSProvider(aws.Config{Region: "us-west-1"}))
	require.NoError(t, err)
	assert.Len(t, q.Specs(), len(catalog.Queues()))
}

func TestSetup_SingleQueueScenario(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example/")
	q := NewWithAPI(fake, []catalog.QueueSpec{{Name: "jobs", VisibilityTimeout: 30}})

	require.NoError(t, q.Setup(context.Background(), testArgs()))

	assert.Equal(t, []string{"orch_jobs_q1"}, fake.QueueNames())
	assert.Equal(t, 1, fake.CountCalls("CreateQueue"))
	assert.Equal(t, 1, fake.CountCalls("SetQueueAttributes"))

	attrs, ok := fake.Attributes("orch_jobs_q1")
	require.True(t, ok)
	assert.Equal(t, "30", attrs["VisibilityTimeout"])
	assert.NotContains(t, attrs, "RedrivePolicy")
}

func TestSetup_DefaultCatalogWithRedrive(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example/")
	specs := catalog.Queues()
	q := NewWithAPI(fake, specs)

	require.NoError(t, q.Setup(context.Background(), testArgs()))
	assert.Len(t, fake.QueueNames(), len(specs))
	// one combined attribute update per queue
	assert.Equal(t, len(specs), fake.CountCalls("SetQueueAttributes"))

	failureARN := "arn:aws:sqs:us-west-1:123456789012:orch_job_handle_failure_q1"
	for _, spec := range specs {
		attrs, ok := fake.Attributes("orch_" + spec.Name + "_q1")
		require.True(t, ok, spec.Name)
		assert.Equal(t, "300", attrs["VisibilityTimeout"], spec.Name)

		if spec.DLQ == nil {
			assert.NotContains(t, attrs, "RedrivePolicy", spec.Name)
			continue
		}
		var policy map[string]string
		require.NoError(t, json.Unmarshal([]byte(attrs["RedrivePolicy"]), &policy), spec.Name)
		assert.Equal(t, map[string]string{
			"deadLetterTargetArn": failureARN,
			"maxReceiveCount":     "5",
		}, policy, spec.Name)
	}

	ready, err := q.Check(context.Background(), testArgs())
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestSetup_Idempotent(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example")
	q := NewWithAPI(fake, catalog.Queues())
	require.NoError(t, q.Setup(context.Background(), testArgs()))

	before := map[string]map[string]string{}
	for _, n := range fake.QueueNames() {
		before[n], _ = fake.Attributes(n)
	}
	creates, sets := fake.CountCalls("CreateQueue"), fake.CountCalls("SetQueueAttributes")

	require.NoError(t, q.Setup(context.Background(), testArgs()))

	assert.Equal(t, creates, fake.CountCalls("CreateQueue"))
	assert.Equal(t, sets, fake.CountCalls("SetQueueAttributes"))
	for n, attrs := range before {
		after, _ := fake.Attributes(n)
		assert.Equal(t, attrs, after)
	}
}

func TestSetup_CreatedURLIsAuthoritative(t *testing.T) {
	t.Parallel()

	// The guessed base differs from the URLs the service hands out, so every
	// probe misses and the returned URL must be used for the attribute update.
	fake := NewFakeAPI("https://sqs.us-west-1.amazonaws.com/123456789012")
	q := NewWithAPI(fake, []catalog.QueueSpec{{Name: "jobs", VisibilityTimeout: 30}})

	require.NoError(t, q.Setup(context.Background(), testArgs()))
	assert.Contains(t, fake.Calls(), "SetQueueAttributes https://sqs.us-west-1.amazonaws.com/123456789012/orch_jobs_q1")
}

func TestSetup_Failures(t *testing.T) {
	t.Parallel()

	denied := &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	specs := []catalog.QueueSpec{
		{Name: "failure", VisibilityTimeout: 300},
		{Name: "jobs", VisibilityTimeout: 30, DLQ: &catalog.DlqConfig{MaxReceiveCount: 3, Name: "failure"}},
		{Name: "later", VisibilityTimeout: 30},
	}

	tests := []struct {
		name   string
		failOp string
		target string
		wantOp string
	}{
		{name: "create", failOp: "CreateQueue", target: "orch_jobs_q1", wantOp: "create queue"},
		{name: "dlq url", failOp: "GetQueueUrl", target: "orch_failure_q1", wantOp: "resolve dead-letter queue"},
		{name: "attributes", failOp: "SetQueueAttributes", target: "https://q.example/orch_jobs_q1", wantOp: "set queue attributes"},
		{name: "existence check", failOp: "GetQueueAttributes", target: "https://q.example/orch_jobs_q1", wantOp: "probe queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := NewFakeAPI("https://q.example")
			fake.FailFunc = func(op, target string) error {
				if op == tt.failOp && target == tt.target {
					return denied
				}
				return nil
			}
			q := NewWithAPI(fake, specs)

			err := q.Setup(context.Background(), testArgs())
			require.Error(t, err)

			var provErr *resource.ProvisioningError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, resource.Queue, provErr.Kind)
			assert.Equal(t, tt.wantOp, provErr.Op)
			assert.Equal(t, "orch_jobs_q1", provErr.Name)
			assert.Equal(t, "https://q.example/", provErr.BaseURL)
			assert.ErrorIs(t, err, error(denied))

			// aborts the remaining queues
			_, ok := fake.Attributes("orch_later_q1")
			assert.False(t, ok)
		})
	}
}

func TestSetup_InvalidCatalog(t *testing.T) {
	t.Parallel()

	q := NewWithAPI(NewFakeAPI("https://q.example"), []catalog.QueueSpec{
		{Name: "jobs", DLQ: &catalog.DlqConfig{MaxReceiveCount: 1, Name: "missing"}},
	})
	err := q.Setup(context.Background(), testArgs())
	assert.True(t, resource.IsConfiguration(err))
}

func TestCheck_Conjunction(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example")
	specs := []catalog.QueueSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	q := NewWithAPI(fake, specs)

	fake.AddQueue("orch_a_q1", nil)
	fake.AddQueue("orch_b_q1", nil)

	ready, err := q.Check(context.Background(), testArgs())
	require.NoError(t, err)
	assert.False(t, ready, "two of three queues is not ready")

	fake.AddQueue("orch_c_q1", nil)
	ready, err = q.Check(context.Background(), testArgs())
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestCheck_ProbeError(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example")
	fake.FailFunc = func(string, string) error { return errors.New("throttled") }
	q := NewWithAPI(fake, []catalog.QueueSpec{{Name: "a"}})

	_, err := q.Check(context.Background(), testArgs())
	assert.Error(t, err)
}

func TestTeardown_InstanceScope(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example")
	q := NewWithAPI(fake, catalog.Queues())
	require.NoError(t, q.Setup(context.Background(), testArgs()))

	err := q.Teardown(context.Background())
	assert.True(t, resource.IsConfiguration(err), "nothing bound yet")

	require.NoError(t, q.BindQueue(catalog.WorkerTriggerQueue))
	assert.Equal(t, "https://q.example/orch_worker_trigger_q1", q.BoundURL())
	require.NoError(t, q.Teardown(context.Background()))

	_, ok := fake.Attributes("orch_worker_trigger_q1")
	assert.False(t, ok)
	assert.Len(t, fake.QueueNames(), len(catalog.Queues())-1)

	// second teardown of the same queue is a no-op
	require.NoError(t, q.Teardown(context.Background()))

	assert.True(t, resource.IsConfiguration(q.BindQueue("not_in_catalog")))
}

func TestTeardown_CatalogScope(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example")
	specs := catalog.Queues()
	q := NewWithAPI(fake, specs)
	require.NoError(t, q.Setup(context.Background(), testArgs()))

	// one queue already gone
	_, err := fake.DeleteQueue(context.Background(), &sqs.DeleteQueueInput{QueueUrl: aws.String("https://q.example/orch_snos_job_processing_q1")})
	require.NoError(t, err)

	args := testArgs()
	args.TeardownScope = config.TeardownCatalog
	q.Bind(args)
	require.NoError(t, q.Teardown(context.Background()))
	assert.Empty(t, fake.QueueNames())

	var deleted []string
	for _, c := range fake.Calls() {
		if u, ok := strings.CutPrefix(c, "DeleteQueue "); ok {
			deleted = append(deleted, u)
		}
	}
	// the failure queue is deleted last
	require.NotEmpty(t, deleted)
	assert.Equal(t, "https://q.example/orch_job_handle_failure_q1", deleted[len(deleted)-1])
}

func TestTeardown_UnknownScope(t *testing.T) {
	t.Parallel()

	q := NewWithAPI(NewFakeAPI("https://q.example"), nil)
	args := testArgs()
	args.TeardownScope = "everything"
	q.Bind(args)
	assert.True(t, resource.IsConfiguration(q.Teardown(context.Background())))
}

func TestRedrivePolicy(t *testing.T) {
	t.Parallel()

	got, err := RedrivePolicy("arn:aws:sqs:us-west-1:1:dlq", 5)
	require.NoError(t, err)
	assert.Equal(t, `{"deadLetterTargetArn":"arn:aws:sqs:us-west-1:1:dlq","maxReceiveCount":"5"}`, got)
}

func TestIsNotExist(t *testing.T) {
	t.Parallel()

	assert.False(t, IsNotExist(nil))
	assert.True(t, IsNotExist(&smithy.GenericAPIError{Code: "AWS.SimpleQueueService.NonExistentQueue"}))
	assert.False(t, IsNotExist(&smithy.GenericAPIError{Code: "AccessDenied"}))
}

func TestOnCreateHook(t *testing.T) {
	t.Parallel()

	fake := NewFakeAPI("https://q.example")
	q := NewWithAPI(fake, []catalog.QueueSpec{{Name: "b"}, {Name: "a"}})
	var created []string
	q.OnCreate = func(name string) { created = append(created, name) }

	require.NoError(t, q.Setup(context.Background(), testArgs()))
	sort.Strings(created)
	assert.Equal(t, []string{"orch_a_q1", "orch_b_q1"}, created)
}
