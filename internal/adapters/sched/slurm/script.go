package slurm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gantryproject/gantry/internal/core/domain"
)

// slurmFacts maps runtime facts to the Slurm environment variables that
// carry them inside an allocation.
var slurmFacts = map[string]string{
	domain.FactNodes:    "SLURM_JOB_NUM_NODES",
	domain.FactNodeList: "SLURM_JOB_NODELIST",
	domain.FactJobID:    "SLURM_JOB_ID",
}

// Script renders the sbatch batch script for a job. The script exports the
// deferred variables from Slurm's own environment before any test command
// runs, so ${GANTRY_*} references resolve to the actual allocation.
func Script(spec domain.JobSpec) string {
	var b strings.Builder

	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=%s\n", spec.InstanceID)
	fmt.Fprintf(&b, "#SBATCH --nodes=%d\n", spec.Request.Nodes)
	if spec.Request.Partition != "" {
		fmt.Fprintf(&b, "#SBATCH --partition=%s\n", spec.Request.Partition)
	}
	if len(spec.Request.IncludeNodes) > 0 {
		fmt.Fprintf(&b, "#SBATCH --nodelist=%s\n", strings.Join(spec.Request.IncludeNodes, ","))
	}
	if len(spec.Request.ExcludeNodes) > 0 {
		fmt.Fprintf(&b, "#SBATCH --exclude=%s\n", strings.Join(spec.Request.ExcludeNodes, ","))
	}
	if spec.Timeout > 0 {
		fmt.Fprintf(&b, "#SBATCH --time=%s\n", slurmDuration(spec.Timeout))
	}
	fmt.Fprintf(&b, "#SBATCH --output=%s\n", spec.OutputPath)
	fmt.Fprintf(&b, "#SBATCH --chdir=%s\n", spec.WorkDir)

	b.WriteString("\nset -e\n\n")

	fmt.Fprintf(&b, "export %s=%q\n", domain.EnvVarName("BUILD"), spec.ArtifactDir)

	for _, name := range sortedKeys(spec.DeferredVars) {
		slurmVar, ok := slurmFacts[spec.DeferredVars[name]]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "export %s=\"${%s}\"\n", domain.EnvVarName(name), slurmVar)
	}

	for _, k := range sortedKeys(spec.Env) {
		fmt.Fprintf(&b, "export %s=%q\n", k, spec.Env[k])
	}

	b.WriteString("\n")
	for _, cmd := range spec.Commands {
		b.WriteString(cmd)
		b.WriteString("\n")
	}

	return b.String()
}

// slurmDuration formats a duration as HH:MM:SS for the --time directive.
func slurmDuration(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
