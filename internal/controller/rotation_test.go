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
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/guided-traffic/secret-generator/pkg/config"
	"github.com/guided-traffic/secret-generator/pkg/generator"
)

var _ = Describe("Secret rotation", func() {
	var (
		ctx        context.Context
		now        time.Time
		cfg        *config.Config
		recorder   *record.FakeRecorder
		counters   *countingRecorder
		k8sClient  client.Client
		reconciler *SecretReconciler
	)

	setup := func(secret *corev1.Secret) {
		k8sClient = fake.NewClientBuilder().WithScheme(scheme.Scheme).WithObjects(secret).Build()
		reconciler = &SecretReconciler{
			Client:        k8sClient,
			Scheme:        scheme.Scheme,
			Generator:     generator.NewSecretGenerator(),
			Config:        cfg,
			EventRecorder: recorder,
			Metrics:       counters,
			Clock:         &MockClock{currentTime: now},
		}
	}

	reconcile := func() ctrl.Result {
		result, err := reconciler.Reconcile(ctx, ctrl.Request{
			NamespacedName: types.NamespacedName{Name: "rotating", Namespace: "default"},
		})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	fetch := func() *corev1.Secret {
		var secret corev1.Secret
		Expect(k8sClient.Get(ctx, types.NamespacedName{Name: "rotating", Namespace: "default"}, &secret)).To(Succeed())
		return &secret
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 2, 7, 4, 0, 0, 0, time.UTC)
		cfg = config.NewDefaultConfig()
		recorder = record.NewFakeRecorder(32)
		counters = newCountingRecorder()
	})

	Context("when the rotation interval has elapsed", func() {
		BeforeEach(func() {
			setup(newSecret("rotating", map[string]string{
				AnnotationAutogenerate: "password",
				AnnotationRotate:       "1h",
				AnnotationGeneratedAt:  now.Add(-2 * time.Hour).Format(time.RFC3339),
			}, map[string][]byte{"password": []byte("old-password-value")}))
		})

		It("regenerates the value and schedules the next rotation", func() {
			result := reconcile()
			Expect(result.RequeueAfter).To(Equal(time.Hour))

			secret := fetch()
			Expect(string(secret.Data["password"])).NotTo(Equal("old-password-value"))
			Expect(secret.Data["password"]).To(HaveLen(generator.DefaultLength))
			Expect(secret.Annotations[AnnotationGeneratedAt]).To(Equal(now.Format(time.RFC3339)))
			Expect(secret.Annotations).To(HaveKey(AnnotationStrengthPrefix + "password"))
			Expect(counters.rotations).To(Equal(1))
		})

		It("emits a rotation event only when enabled", func() {
			reconcile()
			Expect(drainEvents(recorder)).To(BeEmpty())
		})

		Context("with rotation events enabled", func() {
			BeforeEach(func() {
				cfg.Rotation.CreateEvents = true
			})

			It("records a RotationSucceeded event", func() {
				reconcile()
				events := drainEvents(recorder)
				Expect(events).To(HaveLen(1))
				Expect(events[0]).To(HavePrefix("Normal " + EventReasonRotationSucceeded))
			})
		})
	})

	Context("when the rotation interval has not elapsed", func() {
		BeforeEach(func() {
			setup(newSecret("rotating", map[string]string{
				AnnotationAutogenerate: "password",
				AnnotationRotate:       "1h",
				AnnotationGeneratedAt:  now.Add(-20 * time.Minute).Format(time.RFC3339),
			}, map[string][]byte{"password": []byte("old-password-value")}))
		})

		It("keeps the value and requeues for the remaining time", func() {
			result := reconcile()
			Expect(result.RequeueAfter).To(Equal(40 * time.Minute))
			Expect(string(fetch().Data["password"])).To(Equal("old-password-value"))
			Expect(counters.rotations).To(BeZero())
		})
	})

	Context("when fields have their own intervals", func() {
		BeforeEach(func() {
			setup(newSecret("rotating", map[string]string{
				AnnotationAutogenerate:              "password,token",
				AnnotationRotate:                    "24h",
				AnnotationRotatePrefix + "token":    "30m",
				AnnotationAlgorithmPrefix + "token": "uuid",
				AnnotationGeneratedAt:               now.Add(-time.Hour).Format(time.RFC3339),
			}, map[string][]byte{
				"password": []byte("old-password-value"),
				"token":    []byte("old-token-value"),
			}))
		})

		It("rotates only the fields that are due", func() {
			result := reconcile()
			Expect(result.RequeueAfter).To(Equal(30 * time.Minute))

			secret := fetch()
			Expect(string(secret.Data["password"])).To(Equal("old-password-value"))
			Expect(string(secret.Data["token"])).NotTo(Equal("old-token-value"))
			Expect(secret.Data["token"]).To(HaveLen(36))
			Expect(counters.generated).To(HaveKeyWithValue(string(generator.AlgorithmUUID), 1))
		})
	})

	Context("when the interval is below the configured minimum", func() {
		BeforeEach(func() {
			setup(newSecret("rotating", map[string]string{
				AnnotationAutogenerate: "password",
				AnnotationRotate:       "1m",
				AnnotationGeneratedAt:  now.Add(-time.Hour).Format(time.RFC3339),
			}, map[string][]byte{"password": []byte("old-password-value")}))
		})

		It("refuses to rotate and warns", func() {
			result := reconcile()
			Expect(result).To(Equal(ctrl.Result{}))
			Expect(string(fetch().Data["password"])).To(Equal("old-password-value"))

			events := drainEvents(recorder)
			Expect(events).To(HaveLen(1))
			Expect(strings.HasPrefix(events[0], "Warning "+EventReasonRotationFailed)).To(BeTrue())
		})
	})

	Context("when a rotating field is generated for the first time", func() {
		BeforeEach(func() {
			setup(newSecret("rotating", map[string]string{
				AnnotationAutogenerate: "password",
				AnnotationRotate:       "7d",
			}, nil))
		})

		It("stamps generated-at and requeues after one interval", func() {
			result := reconcile()
			Expect(result.RequeueAfter).To(Equal(7 * 24 * time.Hour))

			secret := fetch()
			Expect(secret.Data).To(HaveKey("password"))
			Expect(secret.Annotations[AnnotationGeneratedAt]).To(Equal(now.Format(time.RFC3339)))
			Expect(counters.rotations).To(BeZero())

			events := drainEvents(recorder)
			Expect(events).To(HaveLen(1))
			Expect(events[0]).To(HavePrefix("Normal " + EventReasonGenerationSucceeded))
		})
	})
})
