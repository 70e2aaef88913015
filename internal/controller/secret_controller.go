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
	"fmt"
	"strconv"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	"github.com/guided-traffic/secret-generator/internal/metrics"
	"github.com/guided-traffic/secret-generator/pkg/config"
	"github.com/guided-traffic/secret-generator/pkg/generator"
	"github.com/guided-traffic/secret-generator/pkg/strength"
)

const (
	// AnnotationPrefix is the prefix for all secret generator annotations
	AnnotationPrefix = "secretgen.gtrfc.com/"

	// AnnotationAutogenerate specifies which fields to auto-generate
	AnnotationAutogenerate = AnnotationPrefix + "autogenerate"

	// AnnotationAlgorithm specifies the default algorithm for all fields
	AnnotationAlgorithm = AnnotationPrefix + "algorithm"

	// AnnotationAlgorithmPrefix is the prefix for field-specific algorithm annotations (algorithm.<field>)
	AnnotationAlgorithmPrefix = AnnotationPrefix + "algorithm."

	// AnnotationLength specifies the default length of the generated value
	AnnotationLength = AnnotationPrefix + "length"

	// AnnotationLengthPrefix is the prefix for field-specific length annotations (length.<field>)
	AnnotationLengthPrefix = AnnotationPrefix + "length."

	// AnnotationSegments and AnnotationSegmentLength shape api-key values
	AnnotationSegments      = AnnotationPrefix + "segments"
	AnnotationSegmentLength = AnnotationPrefix + "segment-length"

	// AnnotationBytes specifies the number of random bytes for binary-key values
	AnnotationBytes = AnnotationPrefix + "bytes"

	// AnnotationIncludeSymbols toggles symbols for with-symbols values
	AnnotationIncludeSymbols = AnnotationPrefix + "include-symbols"

	// AnnotationPasswordClasses lists the required password classes (upper,lower,numbers,symbols)
	AnnotationPasswordClasses = AnnotationPrefix + "password-classes"

	// AnnotationCharset overrides the algorithm alphabet with a custom character set
	AnnotationCharset = AnnotationPrefix + "charset"

	// AnnotationExcludeSimilar removes visually similar characters from the custom charset
	AnnotationExcludeSimilar = AnnotationPrefix + "exclude-similar"

	// AnnotationStrengthPrefix is the prefix for the estimated strength of a field (strength.<field>)
	AnnotationStrengthPrefix = AnnotationPrefix + "strength."

	// AnnotationGeneratedAt indicates when the value was generated
	AnnotationGeneratedAt = AnnotationPrefix + "generated-at"

	// AnnotationRotate specifies the default rotation interval for all fields
	AnnotationRotate = AnnotationPrefix + "rotate"

	// AnnotationRotatePrefix is the prefix for field-specific rotation annotations (rotate.<field>)
	AnnotationRotatePrefix = AnnotationPrefix + "rotate."

	// Event reasons
	EventReasonGenerationFailed    = "GenerationFailed"
	EventReasonGenerationSucceeded = "GenerationSucceeded"
	EventReasonRotationSucceeded   = "RotationSucceeded"
	EventReasonRotationFailed      = "RotationFailed"
)

// SecretReconciler reconciles a Secret object
type SecretReconciler struct {
	client.Client
	Scheme        *runtime.Scheme
	Generator     generator.Generator
	Config        *config.Config
	EventRecorder record.EventRecorder
	// Metrics records generation counters. If nil, nothing is recorded.
	Metrics metrics.Recorder
	// Clock is used to get the current time. If nil, time.Now() is used.
	// This allows for time mocking in tests.
	Clock Clock
}

// Clock is an interface for getting the current time.
// This allows for time mocking in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// now returns the current time using the Clock if set, otherwise time.Now()
func (r *SecretReconciler) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now()
	}
	return time.Now()
}

// since returns the time elapsed since t using the Clock
func (r *SecretReconciler) since(t time.Time) time.Duration {
	return r.now().Sub(t)
}

func (r *SecretReconciler) metrics() metrics.Recorder {
	if r.Metrics != nil {
		return r.Metrics
	}
	return metrics.NoopRecorder{}
}

// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch

// Reconcile fills the fields listed in the autogenerate annotation and rotates them when due
func (r *SecretReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var secret corev1.Secret
	if err := r.Get(ctx, req.NamespacedName, &secret); err != nil {
		// Secret was deleted, nothing to do
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	autogenerate, ok := secret.Annotations[AnnotationAutogenerate]
	if !ok || autogenerate == "" {
		return ctrl.Result{}, nil
	}

	logger.Info("Reconciling Secret", "name", secret.Name, "namespace", secret.Namespace)

	fields := parseFields(autogenerate)
	if len(fields) == 0 {
		logger.Info("No fields to generate")
		return ctrl.Result{}, nil
	}

	if secret.Data == nil {
		secret.Data = make(map[string][]byte)
	}

	changed := false
	rotated := false
	generatedAt := r.getGeneratedAtTime(secret.Annotations)
	var nextRotation *time.Duration

	for _, field := range fields {
		rotationInterval := r.getFieldRotationInterval(secret.Annotations, field)

		needsRotation := false
		if rotationInterval > 0 && generatedAt != nil {
			if rotationInterval < r.Config.Rotation.MinInterval.Duration() {
				errMsg := fmt.Sprintf("Rotation interval %s for field %q is below minimum %s",
					rotationInterval, field, r.Config.Rotation.MinInterval.Duration())
				logger.Error(nil, errMsg, "field", field)
				r.EventRecorder.Event(&secret, corev1.EventTypeWarning, EventReasonRotationFailed, errMsg)
				continue
			}

			timeSinceGeneration := r.since(*generatedAt)
			if timeSinceGeneration >= rotationInterval {
				needsRotation = true
				logger.Info("Field needs rotation", "field", field, "timeSinceGeneration", timeSinceGeneration, "rotationInterval", rotationInterval)
			} else {
				timeUntilRotation := rotationInterval - timeSinceGeneration
				if nextRotation == nil || timeUntilRotation < *nextRotation {
					nextRotation = &timeUntilRotation
				}
			}
		} else if rotationInterval > 0 && generatedAt == nil {
			if nextRotation == nil || rotationInterval < *nextRotation {
				nextRotation = &rotationInterval
			}
		}

		if _, exists := secret.Data[field]; exists && !needsRotation {
			logger.V(1).Info("Field already has value, skipping", "field", field)
			continue
		}

		genCfg, err := r.fieldConfig(secret.Annotations, field)
		if err == nil {
			var value string
			value, err = r.Generator.Generate(genCfg)
			if err == nil {
				// Kubernetes base64-encodes Data itself, the raw value is stored
				secret.Data[field] = []byte(value)
				result := strength.Estimate(value)
				secret.Annotations[AnnotationStrengthPrefix+field] = fmt.Sprintf("%s/%d", result.Strength, result.Score)
			}
		}
		if err != nil {
			errMsg := fmt.Sprintf("Failed to generate value for field %q: %v", field, err)
			logger.Error(err, "Failed to generate value", "field", field, "algorithm", genCfg.Algorithm)
			r.EventRecorder.Event(&secret, corev1.EventTypeWarning, EventReasonGenerationFailed, errMsg)
			r.metrics().GenerationFailed(string(genCfg.Algorithm))
			return ctrl.Result{}, fmt.Errorf("failed to generate value for field %s: %w", field, err)
		}

		r.metrics().Generated(string(genCfg.Algorithm))
		changed = true
		if needsRotation {
			rotated = true
			logger.Info("Rotated value for field", "field", field, "algorithm", genCfg.Algorithm)
		} else {
			logger.Info("Generated value for field", "field", field, "algorithm", genCfg.Algorithm)
		}
	}

	if changed {
		secret.Annotations[AnnotationGeneratedAt] = r.now().Format(time.RFC3339)

		if err := r.Update(ctx, &secret); err != nil {
			logger.Error(err, "Failed to update Secret")
			return ctrl.Result{}, err
		}

		if rotated {
			r.metrics().Rotated()
			if r.Config.Rotation.CreateEvents {
				r.EventRecorder.Event(&secret, corev1.EventTypeNormal, EventReasonRotationSucceeded,
					"Successfully rotated values for secret fields")
			}
			logger.Info("Successfully rotated Secret values")
		} else {
			r.EventRecorder.Event(&secret, corev1.EventTypeNormal, EventReasonGenerationSucceeded,
				"Successfully generated values for secret fields")
			logger.Info("Successfully updated Secret with generated values")
		}

		// Everything was just regenerated, so the next rotation is one full interval away
		for _, field := range fields {
			rotationInterval := r.getFieldRotationInterval(secret.Annotations, field)
			if rotationInterval > 0 {
				if nextRotation == nil || rotationInterval < *nextRotation {
					nextRotation = &rotationInterval
				}
			}
		}
	}

	if nextRotation != nil {
		logger.Info("Scheduling next reconciliation for rotation", "requeueAfter", *nextRotation)
		return ctrl.Result{RequeueAfter: *nextRotation}, nil
	}

	return ctrl.Result{}, nil
}

// fieldConfig builds the generator config for a field from the configured defaults
// overlaid with the Secret's annotations
func (r *SecretReconciler) fieldConfig(annotations map[string]string, field string) (generator.Config, error) {
	cfg, err := r.Config.Defaults.GeneratorConfig()
	if err != nil {
		return cfg, err
	}

	algorithm, err := generator.ParseAlgorithm(r.getFieldAlgorithm(annotations, field))
	if err != nil {
		return cfg, err
	}
	cfg.Algorithm = algorithm
	cfg.Length = r.getFieldLength(annotations, field)
	cfg.Segments = getIntAnnotation(annotations, AnnotationSegments, cfg.Segments)
	cfg.SegmentLength = getIntAnnotation(annotations, AnnotationSegmentLength, cfg.SegmentLength)
	cfg.Bytes = getIntAnnotation(annotations, AnnotationBytes, cfg.Bytes)
	cfg.IncludeSymbols = getBoolAnnotation(annotations, AnnotationIncludeSymbols, cfg.IncludeSymbols)
	cfg.ExcludeSimilar = getBoolAnnotation(annotations, AnnotationExcludeSimilar, cfg.ExcludeSimilar)

	if value, ok := annotations[AnnotationCharset]; ok && value != "" {
		cfg.CustomCharset = value
		cfg.UseCustomCharset = true
	}

	if value, ok := annotations[AnnotationPasswordClasses]; ok && value != "" {
		opts, err := parsePasswordClasses(value)
		if err != nil {
			return cfg, err
		}
		cfg.Password = opts
	}

	return cfg, nil
}

// parseFields parses a comma-separated list of field names
func parseFields(value string) []string {
	var fields []string
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

// parsePasswordClasses parses a comma-separated list of password classes
func parsePasswordClasses(value string) (generator.PasswordOptions, error) {
	var opts generator.PasswordOptions
	for _, class := range parseFields(value) {
		switch strings.ToLower(class) {
		case "upper", "uppercase":
			opts.Uppercase = true
		case "lower", "lowercase":
			opts.Lowercase = true
		case "numbers", "digits":
			opts.Numbers = true
		case "symbols":
			opts.Symbols = true
		default:
			return opts, fmt.Errorf("%w: unknown password class '%s', must be one of: upper, lower, numbers, symbols",
				generator.ErrInvalidConfig, class)
		}
	}
	return opts, nil
}

// getAnnotationOrDefault returns the annotation value or a default
func (r *SecretReconciler) getAnnotationOrDefault(annotations map[string]string, key, defaultValue string) string {
	if value, ok := annotations[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

// getIntAnnotation returns a non-negative integer annotation or the default
func getIntAnnotation(annotations map[string]string, key string, defaultValue int) int {
	if value, ok := annotations[key]; ok && value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

// getBoolAnnotation returns a boolean annotation or the default
func getBoolAnnotation(annotations map[string]string, key string, defaultValue bool) bool {
	if value, ok := annotations[key]; ok && value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getFieldAlgorithm returns the algorithm for a specific field.
// Priority: algorithm.<field> annotation > algorithm annotation > default algorithm from config
func (r *SecretReconciler) getFieldAlgorithm(annotations map[string]string, field string) string {
	if value, ok := annotations[AnnotationAlgorithmPrefix+field]; ok && value != "" {
		return value
	}
	return r.getAnnotationOrDefault(annotations, AnnotationAlgorithm, r.Config.Defaults.Algorithm)
}

// getFieldLength returns the length for a specific field.
// Priority: length.<field> annotation > length annotation > default length from config
func (r *SecretReconciler) getFieldLength(annotations map[string]string, field string) int {
	if value, ok := annotations[AnnotationLengthPrefix+field]; ok && value != "" {
		if length, err := strconv.Atoi(value); err == nil && length > 0 {
			return length
		}
	}
	if value, ok := annotations[AnnotationLength]; ok && value != "" {
		if length, err := strconv.Atoi(value); err == nil && length > 0 {
			return length
		}
	}
	return r.Config.Defaults.Length
}

// getFieldRotationInterval returns the rotation interval for a specific field.
// Priority: rotate.<field> annotation > rotate annotation > 0 (no rotation)
func (r *SecretReconciler) getFieldRotationInterval(annotations map[string]string, field string) time.Duration {
	if value, ok := annotations[AnnotationRotatePrefix+field]; ok && value != "" {
		if duration, err := config.ParseDuration(value); err == nil {
			return duration
		}
	}
	if value, ok := annotations[AnnotationRotate]; ok && value != "" {
		if duration, err := config.ParseDuration(value); err == nil {
			return duration
		}
	}
	return 0
}

// getGeneratedAtTime parses the generated-at annotation and returns the time
func (r *SecretReconciler) getGeneratedAtTime(annotations map[string]string) *time.Time {
	if value, ok := annotations[AnnotationGeneratedAt]; ok && value != "" {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return &t
		}
	}
	return nil
}

// SetupWithManager sets up the controller with the Manager
func (r *SecretReconciler) SetupWithManager(mgr ctrl.Manager) error {
	hasAutogenerateAnnotation := predicate.NewPredicateFuncs(func(object client.Object) bool {
		annotations := object.GetAnnotations()
		if annotations == nil {
			return false
		}
		_, ok := annotations[AnnotationAutogenerate]
		return ok
	})

	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.Secret{}).
		WithEventFilter(hasAutogenerateAnnotation).
		Complete(r)
}
