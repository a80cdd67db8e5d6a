// Package retention prunes evidence records by age and by count.
//
// Age-based pruning deletes records evaluated more than Days ago.
// Count-based pruning then deletes the oldest records until at most
// MaxRecords remain. Scheduler runs both on a github.com/robfig/cron/v3
// schedule such as "0 3 * * *".
package retention
