// Package git reads revision information from the repository that holds
// a book project.
package git
