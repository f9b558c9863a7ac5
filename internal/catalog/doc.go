// Package catalog declares the static queue and worker-trigger catalogs
// that the queue and cron provisioners iterate.
//
// Both catalogs are ordered and immutable; callers receive copies.
package catalog
