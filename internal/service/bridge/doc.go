// Package bridge provisions and updates the wyze-bridge application, the
// MediaMTX relay it depends on and the supporting host pieces: the
// service account, the Python virtual environment, env files, the
// camera library, ffmpeg and the init-system service definition.
//
// Install and Update are the entry points. Both resolve the requested
// release first, classify the current installation against it and abort
// with a state-conflict error when no safe automatic action exists.
package bridge
