// Package services provides cross-cutting helpers shared by the request
// processing components: sentinel errors for failure classification and
// context annotations for correlating log output across an event's
// collaborator calls.
package services
