// Package container runs a containerized build of a packaged project.
//
// The build image receives the project directory and/or a packaged source
// manifest as bind mounts, writes its artifacts into an output directory
// that must start empty, and reuses cargo caches kept on the host between
// runs. The container's exit status is reported back to the caller.
package container
