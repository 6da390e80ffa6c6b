// Package harness orchestrates one golden-tree regression run.
//
// A scenario is a directory holding everything one generator run needs:
//
//	my-scenario/
//	  scenario.yaml        scenario definition (this package's Scenario)
//	  deploy/config.yml    site configuration consumed by the generator
//	  ...                  any further input fixtures the generator reads
//	  expected_output/     checked-in golden tree
//	  output/              harness-managed scratch tree (recreated each run)
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: basic-site
//	description: "Generator output for the default cluster"
//	config: deploy/config.yml
//	expected: expected_output
//	scratch: output
//	args: ["--cluster", "local"]
//	env:
//	  DEPLOY_ENV: local
//	timeout: 30s
//
// All paths are relative to the scenario directory, which doubles as the
// fixture root: the generator runs with its working directory set there.
//
// # Run Pipeline
//
// Run executes the strictly sequential pipeline: prepare the scratch tree,
// invoke the generator, diff scratch against expected, aggregate the
// result. The pipeline never short-circuits on content divergence — a
// single run reports every discrepancy. Fatal conditions (scratch dir
// cannot be prepared, generator cannot be started) abort with an error
// instead of producing a Result.
//
// A Result passes iff the generator exited zero and the diff is empty.
package harness
