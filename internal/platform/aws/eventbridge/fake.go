package eventbridge

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedtypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
)

// FailFunc fails a fake call when it returns non-nil. target is the entity
// name the call addresses.
type FailFunc func(op, target string) error

// FakeEvents is an in-memory EventBridge used by tests across packages.
type FakeEvents struct {
	FailFunc FailFunc

	mu      sync.Mutex
	rules   map[string]string // name -> schedule expression
	targets map[string]map[string]ebtypes.Target
}

var _ EventsAPI = (*FakeEvents)(nil)

// NewFakeEvents returns an empty fake.
func NewFakeEvents() *FakeEvents {
	return &FakeEvents{rules: map[string]string{}, targets: map[string]map[string]ebtypes.Target{}}
}

func (f *FakeEvents) fail(op, target string) error {
	if f.FailFunc != nil {
		return f.FailFunc(op, target)
	}
	return nil
}

// Rules returns rule names mapped to their schedule expressions.
func (f *FakeEvents) Rules() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.rules)
}

// Targets returns the targets of a rule.
func (f *FakeEvents) Targets(rule string) []ebtypes.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Collect(maps.Values(f.targets[rule]))
}

func ruleNotFound(name string) error {
	return &ebtypes.ResourceNotFoundException{Message: aws.String("Rule " + name + " does not exist.")}
}

func (f *FakeEvents) PutRule(_ context.Context, in *eventbridge.PutRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("PutRule", name); err != nil {
		return nil, err
	}
	f.rules[name] = aws.ToString(in.ScheduleExpression)
	return &eventbridge.PutRuleOutput{RuleArn: aws.String("arn:aws:events:us-west-1:123456789012:rule/" + name)}, nil
}

func (f *FakeEvents) PutTargets(_ context.Context, in *eventbridge.PutTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := aws.ToString(in.Rule)
	if err := f.fail("PutTargets", rule); err != nil {
		return nil, err
	}
	if _, ok := f.rules[rule]; !ok {
		return nil, ruleNotFound(rule)
	}
	if f.targets[rule] == nil {
		f.targets[rule] = map[string]ebtypes.Target{}
	}
	for _, t := range in.Targets {
		f.targets[rule][aws.ToString(t.Id)] = t
	}
	return &eventbridge.PutTargetsOutput{}, nil
}

func (f *FakeEvents) DescribeRule(_ context.Context, in *eventbridge.DescribeRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.DescribeRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("DescribeRule", name); err != nil {
		return nil, err
	}
	expr, ok := f.rules[name]
	if !ok {
		return nil, ruleNotFound(name)
	}
	return &eventbridge.DescribeRuleOutput{Name: aws.String(name), ScheduleExpression: aws.String(expr)}, nil
}

func (f *FakeEvents) ListTargetsByRule(_ context.Context, in *eventbridge.ListTargetsByRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.ListTargetsByRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := aws.ToString(in.Rule)
	if err := f.fail("ListTargetsByRule", rule); err != nil {
		return nil, err
	}
	if _, ok := f.rules[rule]; !ok {
		return nil, ruleNotFound(rule)
	}
	return &eventbridge.ListTargetsByRuleOutput{Targets: slices.Collect(maps.Values(f.targets[rule]))}, nil
}

func (f *FakeEvents) RemoveTargets(_ context.Context, in *eventbridge.RemoveTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := aws.ToString(in.Rule)
	if err := f.fail("RemoveTargets", rule); err != nil {
		return nil, err
	}
	for _, id := range in.Ids {
		delete(f.targets[rule], id)
	}
	return &eventbridge.RemoveTargetsOutput{}, nil
}

func (f *FakeEvents) DeleteRule(_ context.Context, in *eventbridge.DeleteRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("DeleteRule", name); err != nil {
		return nil, err
	}
	if len(f.targets[name]) > 0 {
		return nil, fmt.Errorf("rule %s still has targets", name)
	}
	delete(f.rules, name)
	delete(f.targets, name)
	return &eventbridge.DeleteRuleOutput{}, nil
}

// FakeScheduler is an in-memory EventBridge Scheduler used by tests across packages.
type FakeScheduler struct {
	FailFunc FailFunc

	mu        sync.Mutex
	schedules map[string]scheduler.CreateScheduleInput
	updates   int
}

var _ SchedulerAPI = (*FakeScheduler)(nil)

// NewFakeScheduler returns an empty fake.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{schedules: map[string]scheduler.CreateScheduleInput{}}
}

func (f *FakeScheduler) fail(op, target string) error {
	if f.FailFunc != nil {
		return f.FailFunc(op, target)
	}
	return nil
}

// Schedules returns the stored schedules by name.
func (f *FakeScheduler) Schedules() map[string]scheduler.CreateScheduleInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.schedules)
}

// Updates returns how many UpdateSchedule calls succeeded.
func (f *FakeScheduler) Updates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func scheduleNotFound(name string) error {
	return &schedtypes.ResourceNotFoundException{Message: aws.String("Schedule " + name + " does not exist.")}
}

func (f *FakeScheduler) CreateSchedule(_ context.Context, in *scheduler.CreateScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("CreateSchedule", name); err != nil {
		return nil, err
	}
	if _, ok := f.schedules[name]; ok {
		return nil, &schedtypes.ConflictException{Message: aws.String("Schedule " + name + " already exists.")}
	}
	f.schedules[name] = *in
	return &scheduler.CreateScheduleOutput{ScheduleArn: aws.String("arn:aws:scheduler:us-west-1:123456789012:schedule/default/" + name)}, nil
}

func (f *FakeScheduler) UpdateSchedule(_ context.Context, in *scheduler.UpdateScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.UpdateScheduleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("UpdateSchedule", name); err != nil {
		return nil, err
	}
	if _, ok := f.schedules[name]; !ok {
		return nil, scheduleNotFound(name)
	}
	f.schedules[name] = scheduler.CreateScheduleInput{
		Name:               in.Name,
		ScheduleExpression: in.ScheduleExpression,
		FlexibleTimeWindow: in.FlexibleTimeWindow,
		Target:             in.Target,
		State:              in.State,
	}
	f.updates++
	return &scheduler.UpdateScheduleOutput{}, nil
}

func (f *FakeScheduler) GetSchedule(_ context.Context, in *scheduler.GetScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.GetScheduleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("GetSchedule", name); err != nil {
		return nil, err
	}
	s, ok := f.schedules[name]
	if !ok {
		return nil, scheduleNotFound(name)
	}
	return &scheduler.GetScheduleOutput{Name: s.Name, ScheduleExpression: s.ScheduleExpression, Target: s.Target}, nil
}

func (f *FakeScheduler) DeleteSchedule(_ context.Context, in *scheduler.DeleteScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.DeleteScheduleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("DeleteSchedule", name); err != nil {
		return nil, err
	}
	if _, ok := f.schedules[name]; !ok {
		return nil, scheduleNotFound(name)
	}
	delete(f.schedules, name)
	return &scheduler.DeleteScheduleOutput{}, nil
}

// FakeIAM is an in-memory IAM used by tests across packages.
type FakeIAM struct {
	FailFunc FailFunc
	// PageSize limits ListPolicies pages.
	PageSize int

	mu          sync.Mutex
	roles       map[string]string // name -> trust policy
	policies    []iamtypes.Policy
	documents   map[string]string // policy arn -> default version document
	versions    map[string][]iamtypes.PolicyVersion
	serial      int
	attachments map[string][]string
}

var _ IAMAPI = (*FakeIAM)(nil)

// NewFakeIAM returns an empty fake.
func NewFakeIAM() *FakeIAM {
	return &FakeIAM{
		PageSize:    100,
		roles:       map[string]string{},
		documents:   map[string]string{},
		versions:    map[string][]iamtypes.PolicyVersion{},
		attachments: map[string][]string{},
	}
}

func (f *FakeIAM) fail(op, target string) error {
	if f.FailFunc != nil {
		return f.FailFunc(op, target)
	}
	return nil
}

// RoleARN returns the ARN the fake assigns to a role.
func RoleARN(name string) string { return "arn:aws:iam::123456789012:role/" + name }

// PolicyARN returns the ARN the fake assigns to a policy.
func PolicyARN(name string) string { return "arn:aws:iam::123456789012:policy/" + name }

// TrustPolicy returns a role's trust policy and whether the role exists.
func (f *FakeIAM) TrustPolicy(role string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.roles[role]
	return doc, ok
}

// PolicyDocument returns a policy document by name.
func (f *FakeIAM) PolicyDocument(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[PolicyARN(name)]
	return doc, ok
}

// PolicyVersions returns the number of stored versions of a policy.
func (f *FakeIAM) PolicyVersions(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.versions[PolicyARN(name)])
}

// Attachments returns the policy ARNs attached to a role.
func (f *FakeIAM) Attachments(role string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.attachments[role])
}

func noSuchEntity(what string) error {
	return &iamtypes.NoSuchEntityException{Message: aws.String(what + " cannot be found.")}
}

func (f *FakeIAM) CreateRole(_ context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.RoleName)
	if err := f.fail("CreateRole", name); err != nil {
		return nil, err
	}
	if _, ok := f.roles[name]; ok {
		return nil, &iamtypes.EntityAlreadyExistsException{Message: aws.String("Role with name " + name + " already exists.")}
	}
	f.roles[name] = aws.ToString(in.AssumeRolePolicyDocument)
	return &iam.CreateRoleOutput{Role: &iamtypes.Role{RoleName: in.RoleName, Arn: aws.String(RoleARN(name))}}, nil
}

func (f *FakeIAM) GetRole(_ context.Context, in *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.RoleName)
	if err := f.fail("GetRole", name); err != nil {
		return nil, err
	}
	if _, ok := f.roles[name]; !ok {
		return nil, noSuchEntity("role " + name)
	}
	return &iam.GetRoleOutput{Role: &iamtypes.Role{RoleName: in.RoleName, Arn: aws.String(RoleARN(name))}}, nil
}

func (f *FakeIAM) DeleteRole(_ context.Context, in *iam.DeleteRoleInput, _ ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.RoleName)
	if err := f.fail("DeleteRole", name); err != nil {
		return nil, err
	}
	if _, ok := f.roles[name]; !ok {
		return nil, noSuchEntity("role " + name)
	}
	if len(f.attachments[name]) > 0 {
		return nil, &iamtypes.DeleteConflictException{Message: aws.String("Cannot delete entity, must detach all policies first.")}
	}
	delete(f.roles, name)
	return &iam.DeleteRoleOutput{}, nil
}

func (f *FakeIAM) ListPolicies(_ context.Context, in *iam.ListPoliciesInput, _ ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListPolicies", ""); err != nil {
		return nil, err
	}
	start := 0
	if m := aws.ToString(in.Marker); m != "" {
		if _, err := fmt.Sscanf(m, "%d", &start); err != nil {
			return nil, fmt.Errorf("bad marker %q", m)
		}
	}
	end := min(start+f.PageSize, len(f.policies))
	out := &iam.ListPoliciesOutput{Policies: slices.Clone(f.policies[start:end])}
	if end < len(f.policies) {
		out.IsTruncated = true
		out.Marker = aws.String(fmt.Sprint(end))
	}
	return out, nil
}

func (f *FakeIAM) CreatePolicy(_ context.Context, in *iam.CreatePolicyInput, _ ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.PolicyName)
	if err := f.fail("CreatePolicy", name); err != nil {
		return nil, err
	}
	a := PolicyARN(name)
	if _, ok := f.documents[a]; ok {
		return nil, &iamtypes.EntityAlreadyExistsException{Message: aws.String("A policy called " + name + " already exists.")}
	}
	p := iamtypes.Policy{PolicyName: in.PolicyName, Arn: aws.String(a), DefaultVersionId: aws.String("v1")}
	f.policies = append(f.policies, p)
	f.documents[a] = aws.ToString(in.PolicyDocument)
	f.versions[a] = []iamtypes.PolicyVersion{f.newVersion("v1", aws.ToString(in.PolicyDocument), true)}
	return &iam.CreatePolicyOutput{Policy: &p}, nil
}

func (f *FakeIAM) DeletePolicy(_ context.Context, in *iam.DeletePolicyInput, _ ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := aws.ToString(in.PolicyArn)
	if err := f.fail("DeletePolicy", a); err != nil {
		return nil, err
	}
	if _, ok := f.documents[a]; !ok {
		return nil, noSuchEntity("policy " + a)
	}
	for _, attached := range f.attachments {
		if slices.Contains(attached, a) {
			return nil, &iamtypes.DeleteConflictException{Message: aws.String("Cannot delete a policy attached to entities.")}
		}
	}
	if len(f.versions[a]) > 1 {
		return nil, &iamtypes.DeleteConflictException{Message: aws.String("Cannot delete a policy with non-default versions.")}
	}
	delete(f.documents, a)
	delete(f.versions, a)
	f.policies = slices.DeleteFunc(f.policies, func(p iamtypes.Policy) bool { return aws.ToString(p.Arn) == a })
	return &iam.DeletePolicyOutput{}, nil
}

func (f *FakeIAM) AttachRolePolicy(_ context.Context, in *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, a := aws.ToString(in.RoleName), aws.ToString(in.PolicyArn)
	if err := f.fail("AttachRolePolicy", role); err != nil {
		return nil, err
	}
	if _, ok := f.roles[role]; !ok {
		return nil, noSuchEntity("role " + role)
	}
	if !slices.Contains(f.attachments[role], a) {
		f.attachments[role] = append(f.attachments[role], a)
	}
	return &iam.AttachRolePolicyOutput{}, nil
}

func (f *FakeIAM) DetachRolePolicy(_ context.Context, in *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, a := aws.ToString(in.RoleName), aws.ToString(in.PolicyArn)
	if err := f.fail("DetachRolePolicy", role); err != nil {
		return nil, err
	}
	if !slices.Contains(f.attachments[role], a) {
		return nil, noSuchEntity("policy " + a + " on role " + role)
	}
	f.attachments[role] = slices.DeleteFunc(f.attachments[role], func(s string) bool { return s == a })
	return &iam.DetachRolePolicyOutput{}, nil
}

// newVersion stores documents URL-encoded, as IAM returns them.
func (f *FakeIAM) newVersion(id, doc string, isDefault bool) iamtypes.PolicyVersion {
	f.serial++
	return iamtypes.PolicyVersion{
		VersionId:        aws.String(id),
		Document:         aws.String(url.PathEscape(doc)),
		IsDefaultVersion: isDefault,
		CreateDate:       aws.Time(time.Unix(int64(f.serial), 0)),
	}
}

func (f *FakeIAM) policy(a string) (*iamtypes.Policy, error) {
	for i := range f.policies {
		if aws.ToString(f.policies[i].Arn) == a {
			return &f.policies[i], nil
		}
	}
	return nil, noSuchEntity("policy " + a)
}

func (f *FakeIAM) GetPolicy(_ context.Context, in *iam.GetPolicyInput, _ ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := aws.ToString(in.PolicyArn)
	if err := f.fail("GetPolicy", a); err != nil {
		return nil, err
	}
	p, err := f.policy(a)
	if err != nil {
		return nil, err
	}
	out := *p
	return &iam.GetPolicyOutput{Policy: &out}, nil
}

func (f *FakeIAM) GetPolicyVersion(_ context.Context, in *iam.GetPolicyVersionInput, _ ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, id := aws.ToString(in.PolicyArn), aws.ToString(in.VersionId)
	if err := f.fail("GetPolicyVersion", a); err != nil {
		return nil, err
	}
	for _, v := range f.versions[a] {
		if aws.ToString(v.VersionId) == id {
			return &iam.GetPolicyVersionOutput{PolicyVersion: &v}, nil
		}
	}
	return nil, noSuchEntity("policy version " + id)
}

func (f *FakeIAM) CreatePolicyVersion(_ context.Context, in *iam.CreatePolicyVersionInput, _ ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := aws.ToString(in.PolicyArn)
	if err := f.fail("CreatePolicyVersion", a); err != nil {
		return nil, err
	}
	p, err := f.policy(a)
	if err != nil {
		return nil, err
	}
	if len(f.versions[a]) >= 5 {
		return nil, &iamtypes.LimitExceededException{Message: aws.String("A managed policy can have up to 5 versions.")}
	}
	id := fmt.Sprintf("v%d", f.serial+1)
	v := f.newVersion(id, aws.ToString(in.PolicyDocument), in.SetAsDefault)
	if in.SetAsDefault {
		for i := range f.versions[a] {
			f.versions[a][i].IsDefaultVersion = false
		}
		p.DefaultVersionId = aws.String(id)
		f.documents[a] = aws.ToString(in.PolicyDocument)
	}
	f.versions[a] = append(f.versions[a], v)
	return &iam.CreatePolicyVersionOutput{PolicyVersion: &v}, nil
}

func (f *FakeIAM) ListPolicyVersions(_ context.Context, in *iam.ListPolicyVersionsInput, _ ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := aws.ToString(in.PolicyArn)
	if err := f.fail("ListPolicyVersions", a); err != nil {
		return nil, err
	}
	if _, err := f.policy(a); err != nil {
		return nil, err
	}
	return &iam.ListPolicyVersionsOutput{Versions: slices.Clone(f.versions[a])}, nil
}

func (f *FakeIAM) DeletePolicyVersion(_ context.Context, in *iam.DeletePolicyVersionInput, _ ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, id := aws.ToString(in.PolicyArn), aws.ToString(in.VersionId)
	if err := f.fail("DeletePolicyVersion", a); err != nil {
		return nil, err
	}
	i := slices.IndexFunc(f.versions[a], func(v iamtypes.PolicyVersion) bool { return aws.ToString(v.VersionId) == id })
	if i < 0 {
		return nil, noSuchEntity("policy version " + id)
	}
	if f.versions[a][i].IsDefaultVersion {
		return nil, &iamtypes.DeleteConflictException{Message: aws.String("Cannot delete the default version of a policy.")}
	}
	f.versions[a] = slices.Delete(f.versions[a], i, i+1)
	return &iam.DeletePolicyVersionOutput{}, nil
}
