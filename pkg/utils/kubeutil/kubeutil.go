package kubeutil

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	xe "github.com/loom-ml/loom/pkg/errors"
)

// FindKubeconfig locates a kubeconfig file.
//
// Candidates are checked in order of decreasing priority:
// the explicit path (if not empty), envvar KUBECONFIG, then ~/.kube/config.
// Empty string means "not found"; callers should fall back to the
// in-cluster config.
func FindKubeconfig(explicit string) string {
	candidates := []string{explicit, os.Getenv("KUBECONFIG")}
	if home := homedir.HomeDir(); home != "" {
		candidates = append(candidates, filepath.Join(home, ".kube", "config"))
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if s, err := os.Stat(c); err == nil && !s.IsDir() {
			return c
		}
	}
	return ""
}

// ConnectToK8s builds a clientset from the kubeconfig found by
// FindKubeconfig, or from the in-cluster config when none is found.
func ConnectToK8s(kubeconfigPath string) (*kubernetes.Clientset, error) {
	var config *rest.Config
	var err error
	if kubeconfig := FindKubeconfig(kubeconfigPath); kubeconfig == "" {
		config, err = rest.InClusterConfig()
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, xe.Wrap(err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	return clientset, nil
}
