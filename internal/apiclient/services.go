package apiclient

import (
	"fmt"
	"sort"
)

// ServiceName identifies a backend microservice behind the gateway
type ServiceName string

// Known backend services
const (
	ServiceAuth         ServiceName = "auth"
	ServiceCourses      ServiceName = "courses"
	ServiceEnrollment   ServiceName = "enrollment"
	ServicePayment      ServiceName = "payment"
	ServiceAssessment   ServiceName = "assessment"
	ServiceDiscussion   ServiceName = "discussion"
	ServiceAttendance   ServiceName = "attendance"
	ServiceStorage      ServiceName = "storage"
	ServiceNotification ServiceName = "notification"
)

// servicePaths maps every known service to its fixed path under the gateway root
var servicePaths = map[ServiceName]string{
	ServiceAuth:         "/auth-service",
	ServiceCourses:      "/course-service",
	ServiceEnrollment:   "/enrollment-service",
	ServicePayment:      "/payment-service",
	ServiceAssessment:   "/assessment-service",
	ServiceDiscussion:   "/discussion-service",
	ServiceAttendance:   "/attendance-service",
	ServiceStorage:      "/storage-service",
	ServiceNotification: "/notification-service",
}

// PathFor returns the gateway path segment of a service
func PathFor(name ServiceName) (string, error) {
	path, ok := servicePaths[name]
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownService, name)
	}
	return path, nil
}

// Services returns all known service names in a stable order
func Services() []ServiceName {
	names := make([]ServiceName, 0, len(servicePaths))
	for name := range servicePaths {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
