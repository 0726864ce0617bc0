package scheduler

// JobTypeSnapshotRefresh rebuilds the published snapshot for one
// (locale, namespace) scope after a publish or deprecate lands.
const JobTypeSnapshotRefresh = "translations.snapshot.refresh"

// SnapshotRefreshJobKey dedupes refresh jobs per scope: a burst of publishes
// into the same scope collapses to one pending rebuild.
func SnapshotRefreshJobKey(locale, namespace string) string {
	return "snapshot:" + locale + ":" + namespace + ":refresh"
}

// SnapshotRefreshPayload carries the scope through the job queue.
func SnapshotRefreshPayload(locale, namespace string) map[string]any {
	return map[string]any{
		"locale":    locale,
		"namespace": namespace,
	}
}

// SnapshotRefreshScope extracts the scope from a job payload.
func SnapshotRefreshScope(payload map[string]any) (locale, namespace string, ok bool) {
	locale, ok = payload["locale"].(string)
	if !ok || locale == "" {
		return "", "", false
	}
	namespace, ok = payload["namespace"].(string)
	if !ok || namespace == "" {
		return "", "", false
	}
	return locale, namespace, true
}
