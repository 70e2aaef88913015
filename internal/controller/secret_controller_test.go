/*
Copyright 2025 Guided Traffic.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controller

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/guided-traffic/secret-generator/pkg/config"
	"github.com/guided-traffic/secret-generator/pkg/generator"
)

var strengthAnnotation = regexp.MustCompile(`^(weak|medium|strong|very-strong)/\d{1,3}$`)

// MockClock is a mock implementation of Clock for testing
type MockClock struct {
	currentTime time.Time
}

// Now returns the mocked current time
func (m *MockClock) Now() time.Time {
	return m.currentTime
}

// countingRecorder counts metric calls in memory
type countingRecorder struct {
	mu        sync.Mutex
	generated map[string]int
	failed    map[string]int
	rotations int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{generated: map[string]int{}, failed: map[string]int{}}
}

func (c *countingRecorder) Generated(algorithm string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generated[algorithm]++
}

func (c *countingRecorder) GenerationFailed(algorithm string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[algorithm]++
}

func (c *countingRecorder) Rotated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotations++
}

// testContext bundles a reconciler with its fake dependencies
type testContext struct {
	reconciler *SecretReconciler
	client     client.Client
	recorder   *record.FakeRecorder
	metrics    *countingRecorder
}

func setupTestReconciler(t *testing.T, cfg *config.Config, clock Clock, objects ...client.Object) *testContext {
	t.Helper()

	c := fake.NewClientBuilder().WithScheme(scheme.Scheme).WithObjects(objects...).Build()
	recorder := record.NewFakeRecorder(32)
	m := newCountingRecorder()

	return &testContext{
		reconciler: &SecretReconciler{
			Client:        c,
			Scheme:        scheme.Scheme,
			Generator:     generator.NewSecretGenerator(),
			Config:        cfg,
			EventRecorder: recorder,
			Metrics:       m,
			Clock:         clock,
		},
		client:   c,
		recorder: recorder,
		metrics:  m,
	}
}

func (tc *testContext) reconcile(t *testing.T, name string) (ctrl.Result, error) {
	t.Helper()
	return tc.reconciler.Reconcile(context.Background(), ctrl.Request{
		NamespacedName: types.NamespacedName{Name: name, Namespace: "default"},
	})
}

func (tc *testContext) get(t *testing.T, name string) *corev1.Secret {
	t.Helper()
	var secret corev1.Secret
	require.NoError(t, tc.client.Get(context.Background(), types.NamespacedName{Name: name, Namespace: "default"}, &secret))
	return &secret
}

func newSecret(name string, annotations map[string]string, data map[string][]byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Namespace:   "default",
			Annotations: annotations,
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}
}

func drainEvents(recorder *record.FakeRecorder) []string {
	var events []string
	for {
		select {
		case e := <-recorder.Events:
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestReconcileGeneratesMissingFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	secret := newSecret("app", map[string]string{AnnotationAutogenerate: "password, token"}, nil)
	tc := setupTestReconciler(t, config.NewDefaultConfig(), &MockClock{currentTime: now}, secret)

	result, err := tc.reconcile(t, "app")
	require.NoError(t, err)
	assert.Zero(t, result.RequeueAfter)

	updated := tc.get(t, "app")
	for _, field := range []string{"password", "token"} {
		value := string(updated.Data[field])
		assert.Len(t, value, generator.DefaultLength, "field %s", field)
		for _, r := range value {
			assert.Contains(t, generator.AlphanumericCharset, string(r))
		}
		assert.Regexp(t, strengthAnnotation, updated.Annotations[AnnotationStrengthPrefix+field])
	}
	assert.NotEqual(t, updated.Data["password"], updated.Data["token"])
	assert.Equal(t, now.Format(time.RFC3339), updated.Annotations[AnnotationGeneratedAt])

	events := drainEvents(tc.recorder)
	require.Len(t, events, 1)
	assert.True(t, strings.HasPrefix(events[0], "Normal "+EventReasonGenerationSucceeded))

	assert.Equal(t, 2, tc.metrics.generated[string(generator.AlgorithmAlphanumeric)])
}

func TestReconcileKeepsExistingValues(t *testing.T) {
	secret := newSecret("app",
		map[string]string{AnnotationAutogenerate: "password,username"},
		map[string][]byte{"username": []byte("admin")},
	)
	tc := setupTestReconciler(t, config.NewDefaultConfig(), nil, secret)

	_, err := tc.reconcile(t, "app")
	require.NoError(t, err)

	updated := tc.get(t, "app")
	assert.Equal(t, "admin", string(updated.Data["username"]))
	assert.Len(t, updated.Data["password"], generator.DefaultLength)
	assert.NotContains(t, updated.Annotations, AnnotationStrengthPrefix+"username")

	// A second pass has nothing left to generate
	before := string(updated.Data["password"])
	_, err = tc.reconcile(t, "app")
	require.NoError(t, err)
	assert.Equal(t, before, string(tc.get(t, "app").Data["password"]))
}

func TestReconcileIgnoresSecretsWithoutAnnotation(t *testing.T) {
	secret := newSecret("plain", map[string]string{"other": "value"}, nil)
	tc := setupTestReconciler(t, config.NewDefaultConfig(), nil, secret)

	result, err := tc.reconcile(t, "plain")
	require.NoError(t, err)
	assert.Equal(t, ctrl.Result{}, result)
	assert.Empty(t, tc.get(t, "plain").Data)
	assert.Empty(t, drainEvents(tc.recorder))
}

func TestReconcileMissingSecret(t *testing.T) {
	tc := setupTestReconciler(t, config.NewDefaultConfig(), nil)

	result, err := tc.reconcile(t, "gone")
	require.NoError(t, err)
	assert.Equal(t, ctrl.Result{}, result)
}

func TestReconcileFieldSpecificAnnotations(t *testing.T) {
	secret := newSecret("app", map[string]string{
		AnnotationAutogenerate:             "pin,id,key,hex,pass,custom",
		AnnotationLength:                   "20",
		AnnotationAlgorithmPrefix + "pin":  "numeric-pin",
		AnnotationLengthPrefix + "pin":     "6",
		AnnotationAlgorithmPrefix + "id":   "uuid",
		AnnotationAlgorithmPrefix + "key":  "api-key",
		AnnotationSegments:                 "3",
		AnnotationSegmentLength:            "5",
		AnnotationAlgorithmPrefix + "hex":  "Hexadecimal",
		AnnotationAlgorithmPrefix + "pass": "password",
		AnnotationPasswordClasses:          "upper, numbers",
	}, nil)
	tc := setupTestReconciler(t, config.NewDefaultConfig(), nil, secret)

	_, err := tc.reconcile(t, "app")
	require.NoError(t, err)

	updated := tc.get(t, "app")
	assert.Regexp(t, `^[0-9]{6}$`, string(updated.Data["pin"]))
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, string(updated.Data["id"]))
	assert.Regexp(t, `^[A-Za-z0-9]{5}-[A-Za-z0-9]{5}-[A-Za-z0-9]{5}$`, string(updated.Data["key"]))
	assert.Regexp(t, `^[0-9a-f]{20}$`, string(updated.Data["hex"]))
	assert.Regexp(t, `^[A-Z0-9]{20}$`, string(updated.Data["pass"]))
	assert.Regexp(t, `^[A-Za-z0-9]{20}$`, string(updated.Data["custom"]))
}

func TestReconcileCustomCharset(t *testing.T) {
	secret := newSecret("app", map[string]string{
		AnnotationAutogenerate:   "code",
		AnnotationCharset:        "ab01OI",
		AnnotationExcludeSimilar: "true",
		AnnotationLength:         "40",
	}, nil)
	tc := setupTestReconciler(t, config.NewDefaultConfig(), nil, secret)

	_, err := tc.reconcile(t, "app")
	require.NoError(t, err)
	assert.Regexp(t, `^[ab]{40}$`, string(tc.get(t, "app").Data["code"]))
}

func TestReconcileConfigDefaults(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Defaults.Algorithm = "with-symbols"
	cfg.Defaults.IncludeSymbols = true
	cfg.Defaults.Length = 64

	secret := newSecret("app", map[string]string{AnnotationAutogenerate: "secret"}, nil)
	tc := setupTestReconciler(t, cfg, nil, secret)

	_, err := tc.reconcile(t, "app")
	require.NoError(t, err)

	value := string(tc.get(t, "app").Data["secret"])
	assert.Len(t, value, 64)
	for _, r := range value {
		assert.Contains(t, generator.AlphanumericWithSymbolsCharset, string(r))
	}
}

func TestReconcileGenerationFailures(t *testing.T) {
	tests := []struct {
		name        string
		annotations map[string]string
	}{
		{
			name: "unknown algorithm",
			annotations: map[string]string{
				AnnotationAutogenerate: "password",
				AnnotationAlgorithm:    "rot13",
			},
		},
		{
			name: "unknown field algorithm",
			annotations: map[string]string{
				AnnotationAutogenerate:                 "password",
				AnnotationAlgorithmPrefix + "password": "md5",
			},
		},
		{
			name: "length above maximum",
			annotations: map[string]string{
				AnnotationAutogenerate: "password",
				AnnotationLength:       "4611686018427387904",
			},
		},
		{
			name: "bytes above maximum",
			annotations: map[string]string{
				AnnotationAutogenerate: "key",
				AnnotationAlgorithm:    "binary-key",
				AnnotationBytes:        "9999999999",
			},
		},
		{
			name: "unknown password class",
			annotations: map[string]string{
				AnnotationAutogenerate:    "password",
				AnnotationAlgorithm:       "password",
				AnnotationPasswordClasses: "upper,emoji",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := setupTestReconciler(t, config.NewDefaultConfig(), nil, newSecret("app", tt.annotations, nil))

			_, err := tc.reconcile(t, "app")
			require.Error(t, err)
			assert.ErrorIs(t, err, generator.ErrInvalidConfig)

			assert.Empty(t, tc.get(t, "app").Data)
			assert.Empty(t, tc.metrics.generated)
			assert.Len(t, tc.metrics.failed, 1)

			events := drainEvents(tc.recorder)
			require.Len(t, events, 1)
			assert.True(t, strings.HasPrefix(events[0], "Warning "+EventReasonGenerationFailed))
		})
	}
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"password", []string{"password"}},
		{"password,username", []string{"password", "username"}},
		{" password , username ", []string{"password", "username"}},
		{"password,,username,", []string{"password", "username"}},
		{"", nil},
		{" , ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseFields(tt.input))
		})
	}
}

func TestParsePasswordClasses(t *testing.T) {
	opts, err := parsePasswordClasses("Upper,lowercase,digits,symbols")
	require.NoError(t, err)
	assert.Equal(t, generator.PasswordOptions{Uppercase: true, Lowercase: true, Numbers: true, Symbols: true}, opts)

	opts, err = parsePasswordClasses("numbers")
	require.NoError(t, err)
	assert.Equal(t, generator.PasswordOptions{Numbers: true}, opts)

	_, err = parsePasswordClasses("upper,kanji")
	assert.ErrorIs(t, err, generator.ErrInvalidConfig)
}

func TestGetFieldRotationInterval(t *testing.T) {
	r := &SecretReconciler{Config: config.NewDefaultConfig()}

	annotations := map[string]string{
		AnnotationRotate:                 "24h",
		AnnotationRotatePrefix + "token": "7d",
		AnnotationRotatePrefix + "bad":   "soon",
	}

	assert.Equal(t, 7*24*time.Hour, r.getFieldRotationInterval(annotations, "token"))
	assert.Equal(t, 24*time.Hour, r.getFieldRotationInterval(annotations, "password"))
	assert.Equal(t, 24*time.Hour, r.getFieldRotationInterval(annotations, "bad"))
	assert.Zero(t, r.getFieldRotationInterval(map[string]string{}, "password"))
}
