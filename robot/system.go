package robot

import "context"

// Pause stops the robot.
func (r *Robot) Pause(ctx context.Context) error {
	if _, err := r.Request(ctx, CommandPause); err != nil {
		return err
	}
	r.paused.Store(true)
	return nil
}

// Resume makes a paused robot move again.
func (r *Robot) Resume(ctx context.Context) error {
	if _, err := r.Request(ctx, CommandResume); err != nil {
		return err
	}
	r.paused.Store(false)
	return nil
}

// Toggle pauses a running robot or resumes a paused one.
func (r *Robot) Toggle(ctx context.Context) error {
	if r.IsPaused() {
		return r.Resume(ctx)
	}
	return r.Pause(ctx)
}

// IsPaused reports whether the last successful system command paused the
// robot.
func (r *Robot) IsPaused() bool {
	return r.paused.Load()
}
