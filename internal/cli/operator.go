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

package cli

import (
	"fmt"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/guided-traffic/secret-generator/internal/controller"
	"github.com/guided-traffic/secret-generator/internal/metrics"
)

const leaderElectionID = "secretgen.gtrfc.com"

type operatorOptions struct {
	metricsAddr string
	probeAddr   string
	leaderElect bool
}

func newOperatorCommand(a *app) *cobra.Command {
	o := &operatorOptions{}

	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Run the Kubernetes operator",
		Long: `Runs a controller that fills Kubernetes Secrets annotated with
secretgen.gtrfc.com/autogenerate using the configured generator defaults,
and rotates fields that carry a secretgen.gtrfc.com/rotate interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, a)
		},
	}

	cmd.Flags().StringVar(&o.metricsAddr, "metrics-bind-address", ":8080", "address the metrics endpoint binds to")
	cmd.Flags().StringVar(&o.probeAddr, "health-probe-bind-address", ":8081", "address the probe endpoint binds to")
	cmd.Flags().BoolVar(&o.leaderElect, "leader-elect", false, "enable leader election for the controller manager")

	return cmd
}

func (o *operatorOptions) run(cmd *cobra.Command, a *app) error {
	// The operator is long-running, so its progress is logged by default
	if !a.debug {
		a.logger = newLogger(cmd.ErrOrStderr(), true, false)
	}
	ctrl.SetLogger(zapr.NewLogger(a.logger.Desugar()))
	setupLog := ctrl.Log.WithName("setup")

	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))

	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: o.metricsAddr},
		HealthProbeBindAddress: o.probeAddr,
		LeaderElection:         o.leaderElect,
		LeaderElectionID:       leaderElectionID,
	})
	if err != nil {
		return fmt.Errorf("unable to create manager: %w", err)
	}

	recorder, err := metrics.NewControllerRecorder()
	if err != nil {
		return fmt.Errorf("unable to register metrics: %w", err)
	}

	reconciler := &controller.SecretReconciler{
		Client:        mgr.GetClient(),
		Scheme:        mgr.GetScheme(),
		Generator:     a.generator,
		Config:        a.config,
		EventRecorder: mgr.GetEventRecorderFor("secret-generator"),
		Metrics:       recorder,
		Clock:         controller.RealClock{},
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to create controller: %w", err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	setupLog.Info("Starting manager", "defaultAlgorithm", a.config.Defaults.Algorithm,
		"minRotationInterval", a.config.Rotation.MinInterval.String())
	return mgr.Start(ctrl.SetupSignalHandler())
}
